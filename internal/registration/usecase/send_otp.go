package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailotp/internal/registration/entity"
)

type SendOTPInput struct {
	Email string `validate:"notblank"`
}

func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) error {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput("Email required", err)
	}

	var err error
	if s.idemp == nil || s.issueCooldown <= 0 {
		err = s.issueOTP(ctx, in.Email)
	} else {
		err = s.idemp.Exec(ctx, "otp:issue:"+strings.ToLower(in.Email), func(ctx context.Context) error {
			return s.issueOTP(ctx, in.Email)
		}, idempotency.WithStateTTL(s.issueCooldown), idempotency.WithReleaseOnError())
	}

	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.WarnContext(ctx, "otp requested again within cooldown", "email", in.Email)
		return goerror.NewBusiness("Too many requests", goerror.CodeTooManyRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue otp", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	s.incr(ctx, s.issuedCounter)

	return nil
}

func (s *Usecase) issueOTP(ctx context.Context, email string) error {
	rec := entity.NewOTP(email, s.otp.Generate(), s.clock.Now(), s.otpTTL)

	return s.repoDB.IssueOTP(ctx, rec, func(ctx context.Context) error {
		return s.repoMail.SendOTP(ctx, rec.Email, rec.Code, s.otpTTL)
	})
}
