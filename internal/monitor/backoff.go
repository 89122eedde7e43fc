package monitor

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// backoffPolicy doubles the wait on each failure up to a cap and snaps back to the
// base interval on success.
type backoffPolicy struct {
	base time.Duration
	exp  *backoff.ExponentialBackOff
}

func newBackoffPolicy(base, max time.Duration) *backoffPolicy {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = base
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = max
	exp.MaxElapsedTime = 0 // never give up

	p := &backoffPolicy{base: base, exp: exp}
	p.reset()
	return p
}

// reset returns the base interval. The base itself is consumed from the sequence so
// the first failure after a success waits twice the base.
func (p *backoffPolicy) reset() time.Duration {
	p.exp.Reset()
	p.exp.NextBackOff()
	return p.base
}

// next returns the wait after another failure
func (p *backoffPolicy) next() time.Duration {
	return p.exp.NextBackOff()
}
