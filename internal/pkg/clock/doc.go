// Package clock abstracts the wall clock so OTP expiry can be tested against a fixed instant.
package clock
