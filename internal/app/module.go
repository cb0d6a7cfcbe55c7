package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/mailotp/internal/registration"
)

func (a *App) initModules() {
	if err := registration.New(registration.Dependency{
		DBConn:      a.dbConn,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Mail:        a.mail,
		Config:      a.config,
		Instrument:  a.ins,
		OTP:         a.otp,
		Clock:       a.clock,
		Validator:   a.validator,
		Messaging:   a.messaging,
		Idempotency: a.idemp,
	}); err != nil {
		slog.Error("failed to init module registration", "error", err)
		os.Exit(1)
	}
}
