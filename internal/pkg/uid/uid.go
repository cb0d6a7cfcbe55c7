// Package uid provides identifier generators.
package uid

// StringID generates string identifiers such as request correlation ids.
type StringID interface {
	Generate() string
}
