package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pfrederiksen/seat-watch/internal/config"
	"github.com/pfrederiksen/seat-watch/internal/logger"
	"github.com/pfrederiksen/seat-watch/internal/monitor"
	"github.com/pfrederiksen/seat-watch/internal/notifier"
	"github.com/pfrederiksen/seat-watch/internal/scraper"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitSeatOpen = 2
)

var (
	flagConfig      string
	flagCRN         string
	flagName        string
	flagTerm        string
	flagDept        string
	flagInterval    int
	flagMaxBackoff  int
	flagTimeout     int
	flagEndpoint    string
	flagTopic       string
	flagNtfyServer  string
	flagNoDesktop   bool
	flagSound       string
	flagEmail       bool
	flagEmailUser   string
	flagEmailTo     []string
	flagFriends     []string
	flagFriendDelay int
	flagLogFile     string
	flagLogLevel    string
	flagOnce        bool
	flagDryRun      bool
	flagFormat      string
	flagVerbose     bool
)

// exitError carries a process exit code through cobra without printing anything
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "seat-watch",
		Short: "Watch a course section for an open seat",
		Long: `Polls the Dartmouth timetable for one course section and sends an alert
when a seat opens. Alerts fire only when the section goes from full to open.
Repeated failures back off exponentially up to --max-backoff.`,
		RunE:          runWatch,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.Flags()
	f.StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	f.StringVar(&flagCRN, "crn", def.Course.CRN, "Course Reference Number to watch")
	f.StringVar(&flagName, "name", def.Course.Name, "Display name used in alerts")
	f.StringVar(&flagTerm, "term", def.Course.Term, "Term code, e.g. 202603")
	f.StringVar(&flagDept, "dept", def.Course.Dept, "Department code, e.g. COSC")
	f.IntVar(&flagInterval, "interval", def.Poll.IntervalSeconds, "Seconds between checks")
	f.IntVar(&flagMaxBackoff, "max-backoff", def.Poll.MaxBackoffSeconds, "Maximum seconds to wait after repeated failures")
	f.IntVar(&flagTimeout, "timeout", def.Poll.RequestTimeoutSeconds, "Request timeout in seconds")
	f.StringVar(&flagEndpoint, "endpoint", scraper.TimetableURL, "Timetable URL")
	f.StringVar(&flagTopic, "topic", "", "ntfy topic for push alerts (empty disables)")
	f.StringVar(&flagNtfyServer, "ntfy-server", notifier.DefaultNtfyServer, "ntfy server URL")
	f.BoolVar(&flagNoDesktop, "no-desktop", false, "Disable the local desktop alert")
	f.StringVar(&flagSound, "sound", def.Notify.Sound, "Desktop alert sound (empty for silent)")
	f.BoolVar(&flagEmail, "email", false, "Enable email alerts (password from "+config.EnvSMTPPassword+")")
	f.StringVar(&flagEmailUser, "email-user", "", "SMTP username, also the sender")
	f.StringSliceVar(&flagEmailTo, "email-to", nil, "Email recipients (default: the SMTP username)")
	f.StringSliceVar(&flagFriends, "friends", nil, "Email recipients alerted after --friend-delay")
	f.IntVar(&flagFriendDelay, "friend-delay", def.Notify.Email.FriendDelaySeconds, "Seconds to wait before emailing friends")
	f.StringVar(&flagLogFile, "log-file", def.Log.File, "Log file (empty disables)")
	f.StringVar(&flagLogLevel, "log-level", def.Log.Level, "Log level: debug, info, warn, error")
	f.BoolVar(&flagOnce, "once", false, "Check once, print the result and exit (exit code 2 if a seat is open)")
	f.BoolVar(&flagDryRun, "dry-run", false, "Print alerts instead of sending them")
	f.StringVar(&flagFormat, "format", "text", "Output format for --once: text or json")
	f.BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	return cmd
}

// loadConfig builds the configuration: defaults, then --config, then the environment,
// then flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}

	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("crn", func() { cfg.Course.CRN = strings.TrimSpace(flagCRN) })
	set("name", func() { cfg.Course.Name = flagName })
	set("term", func() { cfg.Course.Term = strings.TrimSpace(flagTerm) })
	set("dept", func() { cfg.Course.Dept = strings.ToUpper(strings.TrimSpace(flagDept)) })
	set("interval", func() { cfg.Poll.IntervalSeconds = flagInterval })
	set("max-backoff", func() { cfg.Poll.MaxBackoffSeconds = flagMaxBackoff })
	set("timeout", func() { cfg.Poll.RequestTimeoutSeconds = flagTimeout })
	set("endpoint", func() { cfg.Endpoint = flagEndpoint })
	set("topic", func() { cfg.Notify.Topic = flagTopic })
	set("ntfy-server", func() { cfg.Notify.NtfyServer = flagNtfyServer })
	set("no-desktop", func() { cfg.Notify.Desktop = !flagNoDesktop })
	set("sound", func() { cfg.Notify.Sound = flagSound })
	set("email", func() { cfg.Notify.Email.Enabled = flagEmail })
	set("email-user", func() { cfg.Notify.Email.Username = flagEmailUser })
	set("email-to", func() { cfg.Notify.Email.To = flagEmailTo })
	set("friends", func() { cfg.Notify.Email.Friends = flagFriends })
	set("friend-delay", func() { cfg.Notify.Email.FriendDelaySeconds = flagFriendDelay })
	set("log-file", func() { cfg.Log.File = flagLogFile })
	set("log-level", func() { cfg.Log.Level = flagLogLevel })
	if flagVerbose {
		cfg.Log.Level = string(logger.LevelDebug)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openLogger tees log output to console and, if configured, the log file
func openLogger(cfg *config.Config, console io.Writer) (*logger.Logger, func(), error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Log.File == "" {
		return logger.New(level, console), func() {}, nil
	}

	file, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	closeFn := func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", err)
		}
	}
	return logger.New(level, io.MultiWriter(console, file)), closeFn, nil
}

// buildNotifier assembles the alert channels. Delayed channels are returned so the
// caller can wait for them on shutdown.
func buildNotifier(ctx context.Context, cfg *config.Config, log *logger.Logger, out io.Writer, dryRun bool) (*notifier.Multi, []*notifier.Delayed, error) {
	if dryRun {
		return notifier.NewMulti(log, notifier.Channel{Name: "dry-run", Notifier: notifier.NewDryRunNotifier(out)}), nil, nil
	}

	var channels []notifier.Channel
	var delayed []*notifier.Delayed

	if cfg.Notify.Desktop {
		channels = append(channels, notifier.Channel{Name: "desktop", Notifier: notifier.NewDesktop(cfg.Notify.Sound)})
	}

	if cfg.Notify.Topic != "" {
		ntfy, err := notifier.NewNtfy(cfg.Notify.NtfyServer, cfg.Notify.Topic, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing ntfy: %w", err)
		}
		channels = append(channels, notifier.Channel{Name: "ntfy", Notifier: ntfy})
	}

	if e := cfg.Notify.Email; e.Enabled {
		to := e.To
		if len(to) == 0 {
			to = []string{e.Username}
		}
		email, err := notifier.NewEmail(notifier.EmailConfig{
			Host:     e.Host,
			Port:     e.Port,
			Username: e.Username,
			Password: e.Password,
			To:       to,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("initializing email: %w", err)
		}
		channels = append(channels, notifier.Channel{Name: "email", Notifier: email})

		if len(e.Friends) > 0 {
			friends, err := notifier.NewEmail(notifier.EmailConfig{
				Host:     e.Host,
				Port:     e.Port,
				Username: e.Username,
				Password: e.Password,
				To:       e.Friends,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("initializing friend email: %w", err)
			}
			d := notifier.NewDelayed(ctx, "email-friends", friends, e.FriendDelay(), log)
			delayed = append(delayed, d)
			channels = append(channels, notifier.Channel{Name: "email-friends", Notifier: d})
		}
	}

	if len(channels) == 0 {
		log.Warn("No notification channels configured; open seats will only be logged", nil, nil)
	}

	return notifier.NewMulti(log, channels...), delayed, nil
}

// runWatch is the main command logic
func runWatch(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// keep stdout clean for --once output
	console := cmd.OutOrStdout()
	if flagOnce {
		console = cmd.ErrOrStderr()
	}
	log, closeLog, err := openLogger(cfg, console)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	multi, delayed, err := buildNotifier(ctx, cfg, log, cmd.OutOrStdout(), flagDryRun)
	if err != nil {
		return err
	}
	if flagDryRun {
		logger.Warn("Dry run: alerts are printed, not sent", nil, nil)
	}

	metrics := logger.NewMetrics()
	fetcher := scraper.NewFetcher(cfg.Endpoint, cfg.Poll.RequestTimeout())
	mon, err := monitor.New(monitor.Config{
		Target:     cfg.Course,
		Interval:   cfg.Poll.Interval(),
		MaxBackoff: cfg.Poll.MaxBackoff(),
		EnrollURL:  scraper.EnrollURL,
	}, fetcher, scraper.NewTableExtractor(), multi, monitor.WithLogger(log), monitor.WithMetrics(metrics))
	if err != nil {
		return err
	}

	logger.Debug("Configuration loaded", logger.Fields{
		"endpoint": fetcher.URL(),
		"channels": multi.Channels(),
		"once":     flagOnce,
	})

	if flagOnce {
		err := runOnce(ctx, cmd.OutOrStdout(), mon, cfg, format)
		logger.Debug("Check finished", logger.Fields{"metrics": metrics.GetSnapshot()})
		return err
	}

	if err := mon.Run(ctx); err != nil {
		logger.Error("Monitor stopped unexpectedly", nil, err)
		return err
	}

	// ctx is done here, so delayed deliveries are being cancelled; restore default
	// signal handling so another interrupt is never swallowed while they unwind
	stop()
	if len(delayed) > 0 {
		logger.Info("Waiting for delayed notifications", logger.Fields{"channels": len(delayed)})
	}
	for _, d := range delayed {
		d.Wait()
	}
	return nil
}

func runOnce(ctx context.Context, out io.Writer, mon *monitor.Monitor, cfg *config.Config, format OutputFormat) error {
	snap, err := mon.Poll(ctx)
	if err != nil {
		return fmt.Errorf("checking seats: %w", err)
	}

	if err := WriteOutput(out, newOutputResult(cfg.Course, snap), format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if snap.Open() {
		return &exitError{code: ExitSeatOpen}
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
