package email

import (
	"context"
	"fmt"
	"time"

	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"github.com/shandysiswandi/mailotp/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const subjectOTP = "Your OTP Code"

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

// SendOTP mails code to the given address, stating how long it stays valid.
func (m *Mail) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	ctx, span := m.ins.Tracer("registration.outbound.email").Start(ctx, "SendOTP")
	defer span.End()

	msg := mail.Message{
		To:       []string{to},
		Subject:  subjectOTP,
		TextBody: fmt.Sprintf("Your OTP is %s. It is valid for %s.", code, validFor(ttl)),
	}

	if err := m.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// validFor renders ttl in whole minutes, or in seconds when it is not a
// whole number of minutes.
func validFor(ttl time.Duration) string {
	if ttl >= time.Minute && ttl%time.Minute == 0 {
		return plural(int64(ttl/time.Minute), "minute")
	}
	return plural(int64(max(ttl, time.Second)/time.Second), "second")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
