package db

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"github.com/shandysiswandi/mailotp/internal/registration/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newTestDB(t *testing.T) (*DB, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("mailotp"),
		postgres.WithUsername("mailotp"),
		postgres.WithPassword("mailotp"),
		postgres.WithInitScripts(filepath.Join("..", "..", "..", "..", "migrations", "0001_init.up.sql")),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		//nolint:errcheck // best effort
		_ = ctr.Terminate(context.Background())
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewDB(pool, instrument.NewNoop()), pool
}

func deliverOK(context.Context) error { return nil }

func loadOTPs(t *testing.T, pool *pgxpool.Pool, email string) []entity.OTP {
	t.Helper()

	rows, err := pool.Query(context.Background(),
		`SELECT id, email, otp, expires_at, used FROM otps WHERE email = $1 ORDER BY id`, email)
	require.NoError(t, err)
	defer rows.Close()

	var out []entity.OTP
	for rows.Next() {
		var o entity.OTP
		require.NoError(t, rows.Scan(&o.ID, &o.Email, &o.Code, &o.ExpiresAt, &o.Used))
		out = append(out, o)
	}
	require.NoError(t, rows.Err())
	return out
}

func countUsers(t *testing.T, pool *pgxpool.Pool, email string) int {
	t.Helper()

	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT count(*) FROM users WHERE email = $1`, email).Scan(&n))
	return n
}

func TestDB(t *testing.T) {
	s, pool := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := func(email string) entity.User {
		return entity.User{Name: "Ann", Email: email, Profession: "Engineer"}
	}

	t.Run("issued code is stored unused with exact expiry", func(t *testing.T) {
		rec := entity.NewOTP("fresh@x.com", "123456", now, 5*time.Minute)

		require.NoError(t, s.IssueOTP(ctx, rec, deliverOK))

		got := loadOTPs(t, pool, "fresh@x.com")
		require.Len(t, got, 1)
		assert.False(t, got[0].Used)
		assert.True(t, got[0].ExpiresAt.Equal(now.Add(5*time.Minute)))
		assert.True(t, got[0].IsLive(now))
	})

	t.Run("delivery failure leaves no row", func(t *testing.T) {
		errSMTP := errors.New("smtp down")
		rec := entity.NewOTP("nomail@x.com", "123456", now, 5*time.Minute)

		err := s.IssueOTP(ctx, rec, func(context.Context) error { return errSMTP })

		assert.ErrorIs(t, err, errSMTP)
		assert.Empty(t, loadOTPs(t, pool, "nomail@x.com"))
	})

	t.Run("send then verify registers once", func(t *testing.T) {
		rec := entity.NewOTP("flow@x.com", "654321", now, 5*time.Minute)
		require.NoError(t, s.IssueOTP(ctx, rec, deliverOK))

		created, err := s.VerifyAndRegister(ctx, "flow@x.com", "654321", now.Add(time.Minute), user("flow@x.com"))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "Ann", created.Name)

		got := loadOTPs(t, pool, "flow@x.com")
		require.Len(t, got, 1)
		assert.True(t, got[0].Used)
		assert.Equal(t, 1, countUsers(t, pool, "flow@x.com"))

		_, err = s.VerifyAndRegister(ctx, "flow@x.com", "654321", now.Add(time.Minute), user("flow@x.com"))
		assert.ErrorIs(t, err, goerror.ErrNotFound)
		assert.Equal(t, 1, countUsers(t, pool, "flow@x.com"))
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		rec := entity.NewOTP("late@x.com", "111111", now, 5*time.Minute)
		require.NoError(t, s.IssueOTP(ctx, rec, deliverOK))

		_, err := s.VerifyAndRegister(ctx, "late@x.com", "111111", now.Add(5*time.Minute), user("late@x.com"))

		assert.ErrorIs(t, err, goerror.ErrNotFound)
		assert.False(t, loadOTPs(t, pool, "late@x.com")[0].Used)
		assert.Zero(t, countUsers(t, pool, "late@x.com"))
	})

	t.Run("wrong code or email leaves state unchanged", func(t *testing.T) {
		rec := entity.NewOTP("wrong@x.com", "222222", now, 5*time.Minute)
		require.NoError(t, s.IssueOTP(ctx, rec, deliverOK))

		_, err := s.VerifyAndRegister(ctx, "wrong@x.com", "333333", now, user("wrong@x.com"))
		assert.ErrorIs(t, err, goerror.ErrNotFound)

		_, err = s.VerifyAndRegister(ctx, "other@x.com", "222222", now, user("other@x.com"))
		assert.ErrorIs(t, err, goerror.ErrNotFound)

		assert.False(t, loadOTPs(t, pool, "wrong@x.com")[0].Used)
		assert.Zero(t, countUsers(t, pool, "wrong@x.com"))
		assert.Zero(t, countUsers(t, pool, "other@x.com"))
	})

	t.Run("newest matching code is consumed first", func(t *testing.T) {
		require.NoError(t, s.IssueOTP(ctx, entity.NewOTP("dup@x.com", "444444", now, 5*time.Minute), deliverOK))
		require.NoError(t, s.IssueOTP(ctx, entity.NewOTP("dup@x.com", "444444", now.Add(time.Second), 5*time.Minute), deliverOK))

		_, err := s.VerifyAndRegister(ctx, "dup@x.com", "444444", now.Add(2*time.Second), user("dup@x.com"))
		require.NoError(t, err)

		got := loadOTPs(t, pool, "dup@x.com")
		require.Len(t, got, 2)
		assert.False(t, got[0].Used)
		assert.True(t, got[1].Used)
	})

	t.Run("email matches without regard to case and is stored as submitted", func(t *testing.T) {
		require.NoError(t, s.IssueOTP(ctx, entity.NewOTP("Mixed.Case@X.com", "777777", now, 5*time.Minute), deliverOK))

		created, err := s.VerifyAndRegister(ctx, "mixed.case@x.com", "777777", now, user("mixed.case@x.com"))
		require.NoError(t, err)
		assert.Equal(t, "mixed.case@x.com", created.Email)

		got := loadOTPs(t, pool, "Mixed.Case@X.com")
		require.Len(t, got, 1)
		assert.True(t, got[0].Used)
		assert.Equal(t, "Mixed.Case@X.com", got[0].Email)
		assert.Equal(t, 1, countUsers(t, pool, "mixed.case@x.com"))
	})

	t.Run("concurrent verification of one code registers once", func(t *testing.T) {
		require.NoError(t, s.IssueOTP(ctx, entity.NewOTP("race@x.com", "555555", now, 5*time.Minute), deliverOK))

		const workers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			oks  int
			errs []error
		)
		for range workers {
			wg.Go(func() {
				_, err := s.VerifyAndRegister(ctx, "race@x.com", "555555", now, user("race@x.com"))
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					oks++
					return
				}
				errs = append(errs, err)
			})
		}
		wg.Wait()

		assert.Equal(t, 1, oks)
		for _, err := range errs {
			assert.ErrorIs(t, err, goerror.ErrNotFound)
		}
		assert.Equal(t, 1, countUsers(t, pool, "race@x.com"))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
