package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seat-watch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Course.CRN != "31322" || cfg.Course.Term != "202603" || cfg.Course.Dept != "COSC" {
		t.Errorf("Course = %+v", cfg.Course)
	}
	if cfg.Poll.Interval() != 5*time.Minute {
		t.Errorf("Interval() = %v, want 5m", cfg.Poll.Interval())
	}
	if cfg.Poll.MaxBackoff() != 30*time.Minute {
		t.Errorf("MaxBackoff() = %v, want 30m", cfg.Poll.MaxBackoff())
	}
	if cfg.Poll.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout() = %v, want 30s", cfg.Poll.RequestTimeout())
	}
	if cfg.Notify.Email.FriendDelay() != 2*time.Minute {
		t.Errorf("FriendDelay() = %v, want 2m", cfg.Notify.Email.FriendDelay())
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(Default()) = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
course:
  crn: "40111"
  name: MATH 022 - Linear Algebra
  term: "202609"
  dept: MATH
poll:
  interval_seconds: 60
notify:
  topic: math22-seats
  email:
    enabled: true
    username: me@example.com
    to: [me@example.com]
    friends: [a@example.com, b@example.com]
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Course.CRN != "40111" || cfg.Course.Dept != "MATH" || cfg.Course.Name != "MATH 022 - Linear Algebra" {
		t.Errorf("Course = %+v", cfg.Course)
	}
	if cfg.Poll.IntervalSeconds != 60 {
		t.Errorf("IntervalSeconds = %d, want 60", cfg.Poll.IntervalSeconds)
	}
	// untouched keys keep defaults
	if cfg.Poll.MaxBackoffSeconds != 30*60 {
		t.Errorf("MaxBackoffSeconds = %d, want default", cfg.Poll.MaxBackoffSeconds)
	}
	if !cfg.Notify.Desktop || cfg.Notify.Sound != "Glass" {
		t.Errorf("desktop defaults lost: %+v", cfg.Notify)
	}
	if cfg.Notify.Topic != "math22-seats" {
		t.Errorf("Topic = %q", cfg.Notify.Topic)
	}
	if len(cfg.Notify.Email.Friends) != 2 {
		t.Errorf("Friends = %v", cfg.Notify.Email.Friends)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file expected error")
	}

	path := writeConfig(t, "course: [not, a, map]\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() of malformed file expected error")
	}
}

func TestLoad_PasswordNotReadFromFile(t *testing.T) {
	path := writeConfig(t, `
notify:
  email:
    password: hunter2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Notify.Email.Password != "" {
		t.Error("password must only come from the environment")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(map[string]string{
		EnvSMTPPassword:        "app-password",
		"SEATWATCH_INTERVAL":   "90",
		"SEATWATCH_NTFY_TOPIC": "cosc31-seats",
		"SEATWATCH_LOG_LEVEL":  "debug",
		"SMTP_PASSWORD":        "unprefixed-is-ignored",
	})
	if err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}

	if cfg.Notify.Email.Password != "app-password" {
		t.Errorf("Password = %q", cfg.Notify.Email.Password)
	}
	if cfg.Poll.IntervalSeconds != 90 {
		t.Errorf("IntervalSeconds = %d, want 90", cfg.Poll.IntervalSeconds)
	}
	if cfg.Notify.Topic != "cosc31-seats" {
		t.Errorf("Topic = %q", cfg.Notify.Topic)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	if cfg.Poll.MaxBackoffSeconds != 30*60 {
		t.Errorf("MaxBackoffSeconds = %d, unset variable should keep the default", cfg.Poll.MaxBackoffSeconds)
	}

	if err := cfg.ApplyEnv(map[string]string{}); err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}
	if cfg.Notify.Email.Password != "app-password" {
		t.Error("empty environment should not clear the password")
	}
}

func TestApplyEnv_BadValue(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(map[string]string{"SEATWATCH_INTERVAL": "soon"}); err == nil {
		t.Error("ApplyEnv() expected error for a non-integer interval")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"missing crn", func(c *Config) { c.Course.CRN = " " }, "course.crn"},
		{"missing term", func(c *Config) { c.Course.Term = "" }, "course.term"},
		{"missing dept", func(c *Config) { c.Course.Dept = "" }, "course.dept"},
		{"zero interval", func(c *Config) { c.Poll.IntervalSeconds = 0 }, "interval_seconds"},
		{"cap below interval", func(c *Config) { c.Poll.MaxBackoffSeconds = 10 }, "max_backoff_seconds"},
		{"negative timeout", func(c *Config) { c.Poll.RequestTimeoutSeconds = -1 }, "request_timeout"},
		{"bad endpoint scheme", func(c *Config) { c.Endpoint = "ftp://example.edu" }, "endpoint"},
		{"endpoint without host", func(c *Config) { c.Endpoint = "https://" }, "endpoint"},
		{"bad ntfy server", func(c *Config) { c.Notify.NtfyServer = "ntfy.sh" }, "ntfy_server"},
		{"email without username", func(c *Config) { c.Notify.Email.Enabled = true }, "username"},
		{"email bad port", func(c *Config) {
			c.Notify.Email.Enabled = true
			c.Notify.Email.Username = "me@example.com"
			c.Notify.Email.Port = 70000
		}, "port"},
		{"disabled email is not checked", func(c *Config) { c.Notify.Email.Port = 70000 }, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}

	if err := Validate(nil); err == nil {
		t.Error("Validate(nil) expected error")
	}
}
