package entity

import "time"

// OTP is an issued one-time passcode bound to an email address.
type OTP struct {
	ID        int64
	Email     string
	Code      string
	ExpiresAt time.Time
	Used      bool
}

// NewOTP builds an unused code for email that expires ttl after now.
func NewOTP(email, code string, now time.Time, ttl time.Duration) OTP {
	return OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		Used:      false,
	}
}

// IsLive reports whether the code can still be consumed at now.
func (o OTP) IsLive(now time.Time) bool {
	return !o.Used && o.ExpiresAt.After(now)
}
