package notifier

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// DefaultSound is the macOS alert sound
const DefaultSound = "Glass"

// CommandRunner runs an external command
type CommandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Desktop shows a local platform alert: osascript on macOS, notify-send on Linux
type Desktop struct {
	sound string
	goos  string
	run   CommandRunner
}

// NewDesktop creates a desktop notifier. An empty sound plays nothing.
func NewDesktop(sound string) *Desktop {
	return &Desktop{
		sound: sound,
		goos:  runtime.GOOS,
		run:   runCommand,
	}
}

// Notify shows the alert
func (d *Desktop) Notify(ctx context.Context, msg Message) error {
	switch d.goos {
	case "darwin":
		return d.run(ctx, "osascript", "-e", appleScript(msg, d.sound))
	case "linux", "freebsd", "openbsd":
		return d.run(ctx, "notify-send", "--urgency=critical", "--app-name=seat-watch", msg.Title, msg.Body)
	default:
		return fmt.Errorf("desktop notifications not supported on %s", d.goos)
	}
}

func appleScript(msg Message, sound string) string {
	script := fmt.Sprintf("display notification %s with title %s", quoteAppleScript(msg.Body), quoteAppleScript(msg.Title))
	if sound != "" {
		script += " sound name " + quoteAppleScript(sound)
	}
	return script
}

func quoteAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
