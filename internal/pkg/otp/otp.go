package otp

import (
	"math/rand/v2"

	"github.com/pquerna/otp"
)

// Generator produces numeric one-time passcodes.
type Generator interface {
	// Generate returns a fresh code.
	Generate() string
}

// Numeric generates fixed-width decimal codes without a leading zero,
// uniformly distributed over [10^(n-1), 10^n - 1].
type Numeric struct {
	digits otp.Digits
	min    int32
	span   int32
	intN   func(n int32) int32
}

// NewNumeric returns a generator for the given digit count. Anything other
// than six or eight digits falls back to six.
func NewNumeric(digits otp.Digits) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	lower := int32(1)
	for range digits.Length() - 1 {
		lower *= 10
	}

	return &Numeric{
		digits: digits,
		min:    lower,
		span:   lower*10 - lower,
		intN:   rand.Int32N,
	}
}

// Generate returns a code such as "482913".
func (n *Numeric) Generate() string {
	return n.digits.Format(n.min + n.intN(n.span))
}
