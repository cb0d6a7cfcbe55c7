// Package idempotency tracks the state of keyed operations in Redis so that
// repeated requests within a window can be detected and refused.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

// State is the value stored under an operation key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

var stateErrors = map[State]error{
	StateInProgress: ErrAlreadyInProgress,
	StateCompleted:  ErrAlreadyCompleted,
	StateFailed:     ErrAlreadyFailed,
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// Idempotency runs keyed operations at most once per window.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// StateTracker is the Redis-backed Idempotency implementation.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New returns a StateTracker that namespaces keys with prefix.
// An empty prefix defaults to "idempotency:".
func New(client redis.UniversalClient, prefix string) *StateTracker {
	if prefix == "" {
		prefix = "idempotency:"
	}
	return &StateTracker{client: client, prefix: prefix}
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration   time.Duration
	stateTTL       time.Duration
	releaseOnError bool
}

// WithLockDuration bounds how long a key stays in progress if the caller dies mid-operation.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long the completed or failed state is kept.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// WithReleaseOnError deletes the key when fn fails instead of recording a failed state,
// so the operation can be retried immediately.
func WithReleaseOnError() Option {
	return func(o *execOptions) { o.releaseOnError = true }
}

// Acquire marks key as in progress if nothing is recorded for it and returns
// StateNone, otherwise it returns the recorded state untouched.
// The check and the write are a single SET NX GET round trip (Redis 7+).
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	prev, err := s.client.SetArgs(ctx, s.prefix+key, string(StateInProgress), redis.SetArgs{
		Mode: "NX",
		TTL:  lockDuration,
		Get:  true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return StateNone, nil
	}
	if err != nil {
		return "", err
	}

	if _, known := stateErrors[State(prev)]; !known {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, prev)
	}
	return State(prev), nil
}

func (s *StateTracker) mark(ctx context.Context, key string, state State, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, string(state), ttl).Err()
}

// Release removes any state recorded for key.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Exec runs fn unless key is already in progress, completed or failed within its window.
// The outcome of fn is recorded for the state TTL. Bookkeeping after fn runs is
// detached from ctx cancellation.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	if err := stateErrors[state]; err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	if err := fn(ctx); err != nil {
		if o.releaseOnError {
			return errors.Join(err, s.Release(bg, key))
		}
		return errors.Join(err, s.mark(bg, key, StateFailed, o.stateTTL))
	}

	return s.mark(bg, key, StateCompleted, o.stateTTL)
}
