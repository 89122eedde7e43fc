package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/pfrederiksen/seat-watch/internal/logger"
)

// Delayed forwards messages to another notifier after a fixed delay, in the background.
// Pending deliveries are dropped when the parent context is cancelled, and each
// delivery gets at most the configured timeout once it starts.
type Delayed struct {
	parent  context.Context
	next    Notifier
	delay   time.Duration
	timeout time.Duration
	name    string
	log     *logger.Logger
	wg      sync.WaitGroup
}

// NewDelayed creates a Delayed notifier bound to parent's lifetime
func NewDelayed(parent context.Context, name string, next Notifier, delay time.Duration, log *logger.Logger) *Delayed {
	if log == nil {
		log = logger.Default()
	}
	return &Delayed{
		parent:  parent,
		next:    next,
		delay:   delay,
		timeout: DefaultChannelTimeout,
		name:    name,
		log:     log,
	}
}

// WithTimeout sets the per-delivery timeout and returns d
func (d *Delayed) WithTimeout(timeout time.Duration) *Delayed {
	if timeout > 0 {
		d.timeout = timeout
	}
	return d
}

// Notify schedules delivery and returns immediately
func (d *Delayed) Notify(_ context.Context, msg Message) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		timer := time.NewTimer(d.delay)
		defer timer.Stop()

		select {
		case <-d.parent.Done():
			d.log.Info("Dropped delayed notification", logger.Fields{"channel": d.name})
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(d.parent, d.timeout)
		defer cancel()

		if err := notifyWithin(ctx, d.next, msg); err != nil {
			d.log.Warn("Delayed notification failed", logger.Fields{"channel": d.name}, err)
			return
		}
		d.log.Info("Delayed notification sent", logger.Fields{"channel": d.name})
	}()
	return nil
}

// Wait blocks until every scheduled delivery has finished or been dropped
func (d *Delayed) Wait() {
	d.wg.Wait()
}
