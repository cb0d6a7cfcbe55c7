// Package validator provides a small validation abstraction for request and
// dependency structs.
//
// Business code depends on the Validator interface so validation can be
// shared and tested consistently. The concrete implementation is backed by
// go-playground/validator v10.
package validator

// Validator validates a struct using its `validate` tags.
type Validator interface {
	Validate(data any) error
}
