package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/registration/entity"
)

const (
	queryInsertOTP = `INSERT INTO otps (email, otp, expires_at, used)
VALUES ($1, $2, $3, false)
RETURNING id`

	queryLockLatestLiveOTP = `SELECT id
FROM otps
WHERE lower(email) = lower($1) AND otp = $2 AND used = false AND expires_at > $3
ORDER BY id DESC
LIMIT 1
FOR UPDATE`

	queryConsumeOTP = `UPDATE otps SET used = true WHERE id = $1 AND used = false`

	queryInsertUser = `INSERT INTO users (name, email, profession)
VALUES ($1, $2, $3)
RETURNING id`
)

// IssueOTP inserts rec and commits only after deliver succeeds, so a code
// that never reached the mailbox is never left behind as valid.
func (s *DB) IssueOTP(ctx context.Context, rec entity.OTP, deliver func(ctx context.Context) error) (err error) {
	ctx, span := s.startSpan(ctx, "IssueOTP")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	var id int64
	if err = tx.QueryRow(ctx, queryInsertOTP, rec.Email, rec.Code, rec.ExpiresAt).Scan(&id); err != nil {
		return s.mapError(err)
	}

	if err = deliver(ctx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// VerifyAndRegister locks the newest live code for email (compared without
// regard to case) and code, marks it
// used and inserts user, all in one transaction. Concurrent callers racing on
// the same code see either the lock holder's commit (and get ErrNotFound) or
// its rollback.
func (s *DB) VerifyAndRegister(ctx context.Context, email, code string, now time.Time, user entity.User) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "VerifyAndRegister")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	var otpID int64
	if err = tx.QueryRow(ctx, queryLockLatestLiveOTP, email, code, now).Scan(&otpID); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	tag, err := tx.Exec(ctx, queryConsumeOTP, otpID)
	if err != nil {
		return nil, s.mapError(err)
	}
	if tag.RowsAffected() != 1 {
		err = goerror.ErrNotFound
		return nil, err
	}

	if err = tx.QueryRow(ctx, queryInsertUser, user.Name, user.Email, user.Profession).Scan(&user.ID); err != nil {
		return nil, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, s.mapError(err)
	}

	return &user, nil
}
