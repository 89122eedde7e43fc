package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/seat-watch/internal/course"
	"github.com/pfrederiksen/seat-watch/internal/logger"
	"github.com/pfrederiksen/seat-watch/internal/notifier"
	"github.com/pfrederiksen/seat-watch/internal/scraper"
)

// PageFetcher retrieves the raw timetable page for a target
type PageFetcher interface {
	Fetch(ctx context.Context, target course.Target) ([]byte, error)
}

// Config is the loop's fixed configuration
type Config struct {
	Target     course.Target
	Interval   time.Duration // wait between healthy polls
	MaxBackoff time.Duration // cap on the wait after repeated failures
	EnrollURL  string        // link included in notifications
}

// Validate checks the loop configuration
func (c Config) Validate() error {
	if c.Target.CRN == "" {
		return fmt.Errorf("target CRN is required")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Interval)
	}
	if c.MaxBackoff < c.Interval {
		return fmt.Errorf("max backoff (%v) must not be less than poll interval (%v)", c.MaxBackoff, c.Interval)
	}
	return nil
}

// CycleResult describes one fetch-evaluate cycle
type CycleResult struct {
	Snapshot course.SeatSnapshot
	Open     bool
	Notified bool
	Err      error
	State    PollState
	Wait     time.Duration // sleep before the next cycle
}

// Sleeper waits for d or until ctx is done, returning ctx.Err() in the latter case
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures a Monitor
type Option func(*Monitor)

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(m *Monitor) { m.log = log }
}

// WithMetrics sets the metrics tracker
func WithMetrics(metrics *logger.Metrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

// WithSleeper replaces the interruptible sleep between cycles
func WithSleeper(sleep Sleeper) Option {
	return func(m *Monitor) { m.sleep = sleep }
}

// WithCycleHook registers a callback invoked after every cycle
func WithCycleHook(fn func(CycleResult)) Option {
	return func(m *Monitor) { m.onCycle = fn }
}

// Monitor polls one course section and notifies when a seat opens.
// It is not safe for concurrent use; Run owns it until it returns.
type Monitor struct {
	cfg       Config
	fetcher   PageFetcher
	extractor scraper.Extractor
	notifier  notifier.Notifier
	log       *logger.Logger
	metrics   *logger.Metrics
	sleep     Sleeper
	onCycle   func(CycleResult)
	runID     string

	backoff *backoffPolicy
	state   PollState
}

// New creates a Monitor
func New(cfg Config, fetcher PageFetcher, extractor scraper.Extractor, n notifier.Notifier, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil || extractor == nil || n == nil {
		return nil, errors.New("fetcher, extractor and notifier are required")
	}

	m := &Monitor{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		notifier:  n,
		log:       logger.Default(),
		metrics:   logger.NewMetrics(),
		sleep:     sleepContext,
		runID:     uuid.NewString(),
		backoff:   newBackoffPolicy(cfg.Interval, cfg.MaxBackoff),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.log = m.log.With(logger.Fields{
		"run_id": m.runID,
		"crn":    cfg.Target.CRN,
	})
	m.state = PollState{
		LastKnownOpen:  Unknown,
		CurrentBackoff: cfg.Interval,
	}

	return m, nil
}

// State returns a copy of the current poll state
func (m *Monitor) State() PollState {
	return m.state
}

// RunID identifies this monitor in logs
func (m *Monitor) RunID() string {
	return m.runID
}

// Metrics returns the tracker the loop records into
func (m *Monitor) Metrics() *logger.Metrics {
	return m.metrics
}

// Run polls until ctx is cancelled. Cancellation is the only way out and is not an error.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("Starting seat monitor", logger.Fields{
		"course":      m.cfg.Target.String(),
		"term":        m.cfg.Target.Term,
		"dept":        m.cfg.Target.Dept,
		"interval":    m.cfg.Interval.String(),
		"max_backoff": m.cfg.MaxBackoff.String(),
	})

	for {
		if ctx.Err() != nil {
			m.stopped()
			return nil
		}

		result := m.Cycle(ctx)
		if ctx.Err() != nil {
			m.stopped()
			return nil
		}

		if err := m.sleep(ctx, result.Wait); err != nil {
			m.stopped()
			return nil
		}
	}
}

func (m *Monitor) stopped() {
	m.log.Info("Stopped by user", logger.Fields{
		"last_known": m.state.LastKnownOpen.String(),
		"metrics":    m.metrics.GetSnapshot(),
	})
}

// Poll fetches and extracts the current seat counts once, without touching loop state.
func (m *Monitor) Poll(ctx context.Context) (course.SeatSnapshot, error) {
	start := time.Now()
	page, err := m.fetcher.Fetch(ctx, m.cfg.Target)
	m.metrics.RecordTiming("fetch.duration", time.Since(start))
	if err != nil {
		return course.SeatSnapshot{}, fmt.Errorf("fetching enrollment: %w", err)
	}

	snap, err := m.extractor.Extract(page, m.cfg.Target.CRN)
	if err != nil {
		return course.SeatSnapshot{}, fmt.Errorf("extracting enrollment: %w", err)
	}
	return snap, nil
}

// Cycle runs one fetch-evaluate step, updates the poll state and returns how long to
// wait before the next one.
func (m *Monitor) Cycle(ctx context.Context) CycleResult {
	snap, err := m.Poll(ctx)

	var result CycleResult
	switch {
	case err != nil && ctx.Err() != nil:
		// cancelled mid-fetch; not a failure of the remote side
		result = CycleResult{Err: err, Wait: m.state.CurrentBackoff}
	case err != nil:
		result = m.failed(err)
	default:
		result = m.evaluate(ctx, snap)
	}

	result.State = m.state
	if m.onCycle != nil {
		m.onCycle(result)
	}
	return result
}

func (m *Monitor) failed(err error) CycleResult {
	m.state.ConsecutiveFailures++
	m.state.CurrentBackoff = m.backoff.next()

	m.metrics.IncrCounter("polls.failure")
	m.metrics.SetGauge("consecutive_failures", float64(m.state.ConsecutiveFailures))
	m.metrics.SetGauge("backoff_seconds", m.state.CurrentBackoff.Seconds())

	m.log.Error("Failed to fetch data, backing off", logger.Fields{
		"kind":                 failureKind(err),
		"consecutive_failures": m.state.ConsecutiveFailures,
		"retry_in":             m.state.CurrentBackoff.String(),
	}, err)

	return CycleResult{Err: err, Wait: m.state.CurrentBackoff}
}

func (m *Monitor) evaluate(ctx context.Context, snap course.SeatSnapshot) CycleResult {
	m.state.ConsecutiveFailures = 0
	m.state.CurrentBackoff = m.backoff.reset()
	m.metrics.IncrCounter("polls.success")
	m.metrics.SetGauge("consecutive_failures", 0)
	m.metrics.SetGauge("backoff_seconds", m.state.CurrentBackoff.Seconds())

	previous := m.state.LastKnownOpen
	open := course.IsOpen(snap)
	notify := m.state.Observe(open)

	m.log.Info("Seat check", logger.Fields{
		"course":   m.cfg.Target.String(),
		"enrolled": snap.Enrolled,
		"limit":    snap.Limit,
		"open":     open,
	})

	switch {
	case notify:
		msg := SeatOpenMessage(m.cfg.Target, snap, m.cfg.EnrollURL)
		m.log.Info("*** SPOT AVAILABLE ***", logger.Fields{"message": msg.Body})
		if err := m.notifier.Notify(ctx, msg); err != nil {
			m.log.Warn("Notifier returned an error", nil, err)
		}
		m.metrics.IncrCounter("notifications.sent")
	case !open && previous == Open:
		m.log.Info("Class is full again", logger.Fields{"enrolled": snap.Enrolled, "limit": snap.Limit})
	}

	return CycleResult{
		Snapshot: snap,
		Open:     open,
		Notified: notify,
		Wait:     m.state.CurrentBackoff,
	}
}

// SeatOpenMessage builds the alert sent when a seat opens
func SeatOpenMessage(target course.Target, snap course.SeatSnapshot, enrollURL string) notifier.Message {
	return notifier.Message{
		Title: "SPOT OPEN: " + target.String(),
		Body:  fmt.Sprintf("%d spot(s) open! Enrolled: %d/%d", snap.Spots(), snap.Enrolled, snap.Limit),
		URL:   enrollURL,
	}
}

func failureKind(err error) string {
	var (
		netErr    *scraper.NetworkError
		statusErr *scraper.HTTPStatusError
		parseErr  *scraper.ParseError
	)
	switch {
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &statusErr):
		return "http_status"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, scraper.ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
