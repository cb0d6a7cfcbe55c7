package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/mailotp/internal/pkg/clock"
	"github.com/shandysiswandi/mailotp/internal/pkg/config"
	"github.com/shandysiswandi/mailotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"github.com/shandysiswandi/mailotp/internal/pkg/otp"
	"github.com/shandysiswandi/mailotp/internal/pkg/validator"
	"github.com/shandysiswandi/mailotp/internal/registration/entity"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const defaultOTPTTL = 5 * time.Minute

type UserRegisteredEvent struct {
	UserID     int64
	Name       string
	Email      string
	Profession string
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
}

type repoMail interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
}

type repoDB interface {
	// IssueOTP stores rec and calls deliver before committing; a deliver error discards rec.
	IssueOTP(ctx context.Context, rec entity.OTP, deliver func(ctx context.Context) error) error
	// VerifyAndRegister consumes the newest live code matching email and code and
	// creates user in the same transaction. It returns goerror.ErrNotFound when no code matches.
	VerifyAndRegister(ctx context.Context, email, code string, now time.Time, user entity.User) (*entity.User, error)
	Ping(ctx context.Context) error
}

type Usecase struct {
	repoDB        repoDB
	repoMail      repoMail
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	otp           otp.Generator
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	otpTTL        time.Duration
	issueCooldown time.Duration

	issuedCounter   metric.Int64Counter
	verifiedCounter metric.Int64Counter
	rejectedCounter metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoMail      repoMail
	RepoMessaging repoMessaging
	// Idempotency enables the per-email issuance cooldown when set.
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	OTP         otp.Generator
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
	Goroutine   *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoDB:        dep.RepoDB,
		repoMail:      dep.RepoMail,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		otp:           dep.OTP,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		otpTTL:        defaultOTPTTL,
	}

	if dep.Config != nil {
		if ttl := dep.Config.GetMinute("modules.registration.otp_ttl_minutes"); ttl > 0 {
			uc.otpTTL = ttl
		}
		uc.issueCooldown = dep.Config.GetSecond("modules.registration.issue_cooldown_seconds")
	}

	meter := uc.ins.Meter("registration.usecase")
	uc.issuedCounter = newCounter(meter, "registration.otp.issued", "Number of OTP codes issued and mailed")
	uc.verifiedCounter = newCounter(meter, "registration.otp.verified", "Number of OTP codes consumed by a registration")
	uc.rejectedCounter = newCounter(meter, "registration.otp.rejected", "Number of verification attempts with no matching live code")

	return uc
}

func newCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
		return nil
	}
	return c
}

func (s *Usecase) incr(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("registration.usecase").Start(ctx, name)
}
