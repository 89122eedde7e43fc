// Package config holds seat-watch's startup configuration.
//
// Configuration is built once, in order: Default values, then an optional YAML file,
// then SEATWATCH_* environment variables, then command-line flags applied by the cli
// package. The SMTP password is only ever read from the environment.
// After Validate succeeds the Config is treated as immutable.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/seat-watch/internal/course"
)

// EnvPrefix prefixes every environment variable the config reads
const EnvPrefix = "SEATWATCH_"

// EnvSMTPPassword holds the SMTP app password; it is never read from files or flags
const EnvSMTPPassword = EnvPrefix + "SMTP_PASSWORD"

type Config struct {
	Course   course.Target `yaml:"course"`
	Poll     PollConfig    `yaml:"poll"`
	Endpoint string        `yaml:"endpoint" env:"ENDPOINT"`
	Notify   NotifyConfig  `yaml:"notify"`
	Log      LogConfig     `yaml:"log"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalSeconds       int `yaml:"interval_seconds" env:"INTERVAL"`
	MaxBackoffSeconds     int `yaml:"max_backoff_seconds" env:"MAX_BACKOFF"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" env:"REQUEST_TIMEOUT"`
}

func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

func (p PollConfig) MaxBackoff() time.Duration {
	return time.Duration(p.MaxBackoffSeconds) * time.Second
}

func (p PollConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds) * time.Second
}

// ---- NOTIFY ----

type NotifyConfig struct {
	Desktop    bool        `yaml:"desktop"`
	Sound      string      `yaml:"sound"`
	Topic      string      `yaml:"topic" env:"NTFY_TOPIC"` // empty disables the push
	NtfyServer string      `yaml:"ntfy_server" env:"NTFY_SERVER"`
	Email      EmailConfig `yaml:"email"`
}

type EmailConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	Username           string   `yaml:"username" env:"SMTP_USERNAME"`
	Password           string   `yaml:"-" env:"SMTP_PASSWORD"`
	To                 []string `yaml:"to"`
	Friends            []string `yaml:"friends"`
	FriendDelaySeconds int      `yaml:"friend_delay_seconds"`
}

func (e EmailConfig) FriendDelay() time.Duration {
	return time.Duration(e.FriendDelaySeconds) * time.Second
}

// ---- LOG ----

type LogConfig struct {
	File  string `yaml:"file"` // empty disables the log file
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Default returns the built-in configuration: COSC 031, CRN 31322, checked every
// five minutes with a thirty minute backoff cap.
func Default() *Config {
	return &Config{
		Course: course.Target{
			CRN:  "31322",
			Name: "COSC 031 - Algorithms",
			Term: "202603",
			Dept: "COSC",
		},
		Poll: PollConfig{
			IntervalSeconds:       5 * 60,
			MaxBackoffSeconds:     30 * 60,
			RequestTimeoutSeconds: 30,
		},
		Notify: NotifyConfig{
			Desktop: true,
			Sound:   "Glass",
			Email: EmailConfig{
				FriendDelaySeconds: 2 * 60,
			},
		},
		Log: LogConfig{
			File:  "monitor.log",
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overlays SEATWATCH_* variables. Unset variables leave the current value
// alone. A nil environ reads the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	err := env.ParseWithOptions(c, env.Options{
		Environment: environ,
		Prefix:      EnvPrefix,
	})
	if err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}
