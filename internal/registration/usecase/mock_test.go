package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/mailotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailotp/internal/registration/entity"
	"github.com/stretchr/testify/mock"
)

type mockRepoDB struct{ mock.Mock }

// IssueOTP mirrors the transactional contract: deliver runs only after the insert succeeds.
func (m *mockRepoDB) IssueOTP(ctx context.Context, rec entity.OTP, deliver func(ctx context.Context) error) error {
	args := m.Called(ctx, rec)
	if err := args.Error(0); err != nil {
		return err
	}
	return deliver(ctx)
}

func (m *mockRepoDB) VerifyAndRegister(ctx context.Context, email, code string, now time.Time, user entity.User) (*entity.User, error) {
	args := m.Called(ctx, email, code, now, user)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockRepoDB) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockRepoMail struct{ mock.Mock }

func (m *mockRepoMail) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	return m.Called(ctx, to, code, ttl).Error(0)
}

type mockRepoMessaging struct{ mock.Mock }

func (m *mockRepoMessaging) PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error {
	return m.Called(ctx, msg).Error(0)
}

type mockIdempotency struct{ mock.Mock }

func (m *mockIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...idempotency.Option) error {
	args := m.Called(ctx, key)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

type fixedCode string

func (f fixedCode) Generate() string { return string(f) }
