package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOTP(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	got := NewOTP("a@x.com", "123456", now, 5*time.Minute)

	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "123456", got.Code)
	assert.Equal(t, now.Add(5*time.Minute), got.ExpiresAt)
	assert.False(t, got.Used)
	assert.Zero(t, got.ID)
}

func TestOTP_IsLive(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	o := NewOTP("a@x.com", "123456", now, 5*time.Minute)

	tests := []struct {
		name string
		otp  OTP
		at   time.Time
		want bool
	}{
		{name: "fresh", otp: o, at: now, want: true},
		{name: "just before expiry", otp: o, at: now.Add(5*time.Minute - time.Microsecond), want: true},
		{name: "at expiry", otp: o, at: now.Add(5 * time.Minute), want: false},
		{name: "used", otp: OTP{ExpiresAt: o.ExpiresAt, Used: true}, at: now, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.otp.IsLive(tt.at))
		})
	}
}
