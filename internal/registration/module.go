package registration

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/mailotp/internal/pkg/clock"
	"github.com/shandysiswandi/mailotp/internal/pkg/config"
	"github.com/shandysiswandi/mailotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"github.com/shandysiswandi/mailotp/internal/pkg/mail"
	"github.com/shandysiswandi/mailotp/internal/pkg/messaging"
	"github.com/shandysiswandi/mailotp/internal/pkg/otp"
	"github.com/shandysiswandi/mailotp/internal/pkg/router"
	"github.com/shandysiswandi/mailotp/internal/pkg/validator"
	"github.com/shandysiswandi/mailotp/internal/registration/inbound"
	"github.com/shandysiswandi/mailotp/internal/registration/outbound/db"
	"github.com/shandysiswandi/mailotp/internal/registration/outbound/email"
	"github.com/shandysiswandi/mailotp/internal/registration/outbound/mq"
	"github.com/shandysiswandi/mailotp/internal/registration/usecase"
)

// Dependency lists what the registration module needs from the application.
// Messaging and Idempotency are optional; leaving them nil disables the
// user_registered event and the issuance cooldown.
type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	OTP         otp.Generator              `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Messaging   messaging.Messaging
	Idempotency idempotency.Idempotency
}

func New(dep Dependency) error {
	if dep.Validator == nil {
		return errValidatorRequired
	}
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		RepoMail:    email.New(dep.Mail, dep.Instrument),
		Idempotency: dep.Idempotency,
		Validator:   dep.Validator,
		Config:      dep.Config,
		OTP:         dep.OTP,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
		Goroutine:   dep.Goroutine,
	}
	if dep.Messaging != nil {
		ucDep.RepoMessaging = mq.NewMessaging(dep.Messaging, dep.Instrument)
	}

	inbound.RegisterHTTPEndpoint(dep.Router, usecase.New(ucDep))

	return nil
}
