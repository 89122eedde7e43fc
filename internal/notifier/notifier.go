package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pfrederiksen/seat-watch/internal/logger"
)

// DefaultChannelTimeout bounds how long Multi waits on a single channel
const DefaultChannelTimeout = 30 * time.Second

// Message is a single alert
type Message struct {
	Title string
	Body  string
	URL   string // optional link, e.g. the registration page
}

// Notifier defines the interface for delivering a message to one channel
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, msg Message) error

// Notify calls f(ctx, msg)
func (f NotifierFunc) Notify(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// DeliveryError records a failure in one channel
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification channel %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Channel is a named Notifier
type Channel struct {
	Name     string
	Notifier Notifier
}

// Multi delivers to several channels independently
type Multi struct {
	channels []Channel
	log      *logger.Logger
	timeout  time.Duration
}

// NewMulti creates a Multi over the given channels
func NewMulti(log *logger.Logger, channels ...Channel) *Multi {
	if log == nil {
		log = logger.Default()
	}
	return &Multi{
		channels: channels,
		log:      log,
		timeout:  DefaultChannelTimeout,
	}
}

// WithTimeout sets the per-channel timeout and returns m
func (m *Multi) WithTimeout(d time.Duration) *Multi {
	if d > 0 {
		m.timeout = d
	}
	return m
}

// Channels returns the configured channel names in order
func (m *Multi) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name)
	}
	return names
}

// Notify delivers msg on every channel and logs failures. It always returns nil:
// delivery is best-effort and must never disturb the caller.
func (m *Multi) Notify(ctx context.Context, msg Message) error {
	for _, err := range m.Deliver(ctx, msg) {
		m.log.Warn("Notification delivery failed", logger.Fields{
			"channel": err.Channel,
		}, err.Err)
	}
	return nil
}

// Deliver runs every channel concurrently, each under its own timeout, and returns
// one DeliveryError per failed channel in channel order.
func (m *Multi) Deliver(ctx context.Context, msg Message) []*DeliveryError {
	results := make([]*DeliveryError, len(m.channels))

	var wg sync.WaitGroup
	for i, ch := range m.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			if err := m.deliverOne(ctx, ch, msg); err != nil {
				results[i] = &DeliveryError{Channel: ch.Name, Err: err}
				return
			}
			m.log.Info("Notification sent", logger.Fields{"channel": ch.Name})
		}(i, ch)
	}
	wg.Wait()

	failed := make([]*DeliveryError, 0)
	for _, r := range results {
		if r != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// deliverOne abandons a channel that ignores its context once the timeout passes.
func (m *Multi) deliverOne(ctx context.Context, ch Channel, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	return notifyWithin(ctx, ch.Notifier, msg)
}

// notifyWithin calls n and stops waiting once ctx is done. A panic in n becomes an error.
func notifyWithin(ctx context.Context, n Notifier, msg Message) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- n.Notify(ctx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("gave up waiting: %w", ctx.Err())
	}
}
