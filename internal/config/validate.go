package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pfrederiksen/seat-watch/internal/logger"
)

// Validate checks configuration correctness.
// It does not mutate the configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ---- course ----
	if strings.TrimSpace(cfg.Course.CRN) == "" {
		return fmt.Errorf("course.crn is required")
	}
	if strings.TrimSpace(cfg.Course.Term) == "" {
		return fmt.Errorf("course.term is required")
	}
	if strings.TrimSpace(cfg.Course.Dept) == "" {
		return fmt.Errorf("course.dept is required")
	}

	// ---- poll ----
	if cfg.Poll.IntervalSeconds <= 0 {
		return fmt.Errorf("poll.interval_seconds must be positive, got %d", cfg.Poll.IntervalSeconds)
	}
	if cfg.Poll.MaxBackoffSeconds < cfg.Poll.IntervalSeconds {
		return fmt.Errorf(
			"poll.max_backoff_seconds (%d) must be at least poll.interval_seconds (%d)",
			cfg.Poll.MaxBackoffSeconds,
			cfg.Poll.IntervalSeconds,
		)
	}
	if cfg.Poll.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("poll.request_timeout_seconds must not be negative")
	}

	// ---- endpoints ----
	if err := validateURL("endpoint", cfg.Endpoint); err != nil {
		return err
	}
	if err := validateURL("notify.ntfy_server", cfg.Notify.NtfyServer); err != nil {
		return err
	}

	// ---- email (opt-in) ----
	if e := cfg.Notify.Email; e.Enabled {
		if e.Username == "" {
			return fmt.Errorf("notify.email.username is required when email is enabled")
		}
		if e.Port < 0 || e.Port > 65535 {
			return fmt.Errorf("notify.email.port out of range: %d", e.Port)
		}
		if e.FriendDelaySeconds < 0 {
			return fmt.Errorf("notify.email.friend_delay_seconds must not be negative")
		}
	}

	// ---- log ----
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// validateURL accepts an empty value (use the default) or an absolute http(s) URL
func validateURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", field, raw)
	}
	return nil
}
