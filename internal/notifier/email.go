package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 465

	smtpTimeout = 30 * time.Second
)

// EmailConfig holds SMTP settings. Port 465 uses implicit TLS, any other port
// requires STARTTLS.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Email sends plain-text mail over SMTP
type Email struct {
	cfg  EmailConfig
	send func(ctx context.Context, cfg EmailConfig, m *mail.Msg) error
}

// NewEmail creates an email notifier
func NewEmail(cfg EmailConfig) (*Email, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultSMTPHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email sender is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("at least one email recipient is required")
	}

	return &Email{cfg: cfg, send: sendSMTP}, nil
}

// Notify sends msg to every recipient in a single mail. It gives up when ctx is done,
// even if the SMTP session is stalled.
func (e *Email) Notify(ctx context.Context, msg Message) error {
	m, err := buildMail(e.cfg.From, e.cfg.To, msg, time.Now())
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- e.send(ctx, e.cfg, m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("sending email: %w", ctx.Err())
	}
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func buildMail(from string, to []string, msg Message, now time.Time) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := m.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	// line breaks in a title must never open a new header
	m.Subject(headerBreaks.Replace(msg.Title))
	m.SetDateWithValue(now)

	body := msg.Body
	if msg.URL != "" {
		body += "\n\nGo enroll now!\n" + msg.URL
	}
	m.SetBodyString(mail.TypeTextPlain, body)

	return m, nil
}

func sendSMTP(ctx context.Context, cfg EmailConfig, m *mail.Msg) error {
	timeout := smtpTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 || ctx.Err() != nil {
		return fmt.Errorf("sending email: %w", context.DeadlineExceeded)
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(timeout),
	}
	if cfg.Port == DefaultSMTPPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("configuring SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending email via %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return nil
}
