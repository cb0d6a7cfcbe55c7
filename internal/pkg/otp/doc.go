// Package otp generates the short numeric one-time passcodes mailed to users.
//
// Codes are not secrets derived from a shared key (as in TOTP/HOTP); they are
// random numbers whose only protection is their short lifetime and single use,
// both enforced by the store.
package otp
