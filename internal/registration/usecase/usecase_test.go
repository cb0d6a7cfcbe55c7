package usecase

import (
	"testing"
	"time"

	"github.com/shandysiswandi/mailotp/internal/pkg/clock"
	"github.com/shandysiswandi/mailotp/internal/pkg/config"
	"github.com/shandysiswandi/mailotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"github.com/shandysiswandi/mailotp/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db   *mockRepoDB
	mail *mockRepoMail
	mq   *mockRepoMessaging
	idem *mockIdempotency
	gm   *goroutine.Manager
	uc   *Usecase
}

func newFixture(t *testing.T, yaml string, withCooldown bool) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	f := &fixture{
		db:   new(mockRepoDB),
		mail: new(mockRepoMail),
		mq:   new(mockRepoMessaging),
		idem: new(mockIdempotency),
		gm:   goroutine.NewManager(4),
	}

	dep := Dependency{
		RepoDB:        f.db,
		RepoMail:      f.mail,
		RepoMessaging: f.mq,
		Validator:     v,
		Config:        cfg,
		OTP:           fixedCode("482913"),
		Clock:         clock.Fixed(testNow),
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.gm,
	}
	if withCooldown {
		dep.Idempotency = f.idem
	}
	f.uc = New(dep)

	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	require.NoError(t, f.gm.Wait())
	f.db.AssertExpectations(t)
	f.mail.AssertExpectations(t)
	f.mq.AssertExpectations(t)
	f.idem.AssertExpectations(t)
}
