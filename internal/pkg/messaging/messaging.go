package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when the broker cannot honor a message option, such as Delay.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// Messaging is a broker client that can publish messages and be closed.
type Messaging interface {
	io.Closer
	Publisher
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage is a broker-agnostic message.
type OutgoingMessage struct {
	Body []byte
	// Headers are sent as broker message headers; empty keys are skipped.
	Headers map[string]string
	// Delay requests deferred delivery.
	Delay time.Duration
}

// PublishResult reports where and when the broker accepted a message.
type PublishResult struct {
	Topic     string
	Timestamp time.Time
}
