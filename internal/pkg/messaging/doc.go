// Package messaging provides a broker-agnostic API for publishing messages.
//
// Use-case code depends on the Publisher interface only; NATS is the
// implementation wired by the application.
package messaging
