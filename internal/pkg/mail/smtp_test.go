package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTP_RequiresHostPort(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Host: "", Port: 587})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)

	_, err = NewSMTP(SMTPConfig{Host: "smtp.test", Port: 0})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)
}

func TestSMTP_buildMsg(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "smtp.test", Port: 587, From: "noreply@mailotp.test", Encryption: EncryptionNone})
	require.NoError(t, err)

	t.Run("plain text message", func(t *testing.T) {
		// Arrange
		msg := Message{
			To:       []string{"a@x.com"},
			Subject:  "Your OTP Code",
			TextBody: "Your OTP is 123456. It is valid for 5 minutes.",
		}

		// Act
		m, err := s.buildMsg(msg)
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = m.WriteTo(&buf)
		require.NoError(t, err)

		// Assert
		raw := buf.String()
		assert.Contains(t, raw, "Subject: Your OTP Code")
		assert.Contains(t, raw, "<a@x.com>")
		assert.Contains(t, raw, "<noreply@mailotp.test>")
		assert.Contains(t, raw, "text/plain")
		assert.Contains(t, raw, "Your OTP is 123456. It is valid for 5 minutes.")
	})

	t.Run("no recipients", func(t *testing.T) {
		_, err := s.buildMsg(Message{Subject: "x"})
		assert.ErrorIs(t, err, ErrSMTPNoRecipients)
	})

	t.Run("no sender", func(t *testing.T) {
		noFrom, err := NewSMTP(SMTPConfig{Host: "smtp.test", Port: 587})
		require.NoError(t, err)

		_, err = noFrom.buildMsg(Message{To: []string{"a@x.com"}})
		assert.ErrorIs(t, err, ErrSMTPNoSender)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		_, err := s.buildMsg(Message{To: []string{"not an address"}})
		assert.Error(t, err)
	})
}

func TestSMTP_Send_CanceledContext(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "smtp.test", Port: 587, From: "noreply@mailotp.test"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Send(ctx, Message{To: []string{"a@x.com"}})
	assert.ErrorIs(t, err, context.Canceled)
}
