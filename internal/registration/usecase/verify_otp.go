package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/registration/entity"
)

type VerifyOTPInput struct {
	Name       string `validate:"notblank"`
	Email      string `validate:"notblank"`
	OTP        string `validate:"notblank"`
	Profession string `validate:"notblank"`
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) error {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.OTP = strings.TrimSpace(in.OTP)
	in.Profession = strings.TrimSpace(in.Profession)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput("Missing fields", err)
	}

	user, err := s.repoDB.VerifyAndRegister(ctx, in.Email, in.OTP, s.clock.Now(), entity.User{
		Name:       in.Name,
		Email:      in.Email,
		Profession: in.Profession,
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no live otp matches", "email", in.Email)
		s.incr(ctx, s.rejectedCounter)
		return goerror.NewBusiness("Invalid OTP", goerror.CodeInvalidInput)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo verify and register", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	s.incr(ctx, s.verifiedCounter)
	s.publishUserRegistered(ctx, *user)

	return nil
}

func (s *Usecase) publishUserRegistered(ctx context.Context, user entity.User) {
	if s.repoMessaging == nil || s.goroutine == nil {
		return
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishUserRegistered(ctx, UserRegisteredEvent{
			UserID:     user.ID,
			Name:       user.Name,
			Email:      user.Email,
			Profession: user.Profession,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish user registered", "user_id", user.ID, "error", err)
		}
		return nil
	})
}
