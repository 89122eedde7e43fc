package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/sling"
)

const (
	// DefaultNtfyServer is the public ntfy broker
	DefaultNtfyServer = "https://ntfy.sh/"
	ntfyTimeout       = 10 * time.Second
)

// ntfyResponse is the body ntfy returns for a published message
type ntfyResponse struct {
	ID    string `json:"id"`
	Topic string `json:"topic"`
	Event string `json:"event"`
}

// ntfyError is the body ntfy returns on failure
type ntfyError struct {
	Code  int    `json:"code"`
	HTTP  int    `json:"http"`
	Error string `json:"error"`
}

// Ntfy pushes messages to a topic on an ntfy server
type Ntfy struct {
	base     *sling.Sling
	topic    string
	priority string
	tags     string
}

// NewNtfy creates an ntfy notifier. An empty server selects DefaultNtfyServer and a
// nil client gets a default client with a short timeout.
func NewNtfy(server, topic string, client *http.Client) (*Ntfy, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("ntfy topic is required")
	}
	if server == "" {
		server = DefaultNtfyServer
	}
	if !strings.HasSuffix(server, "/") {
		server += "/"
	}
	if _, err := url.Parse(server); err != nil {
		return nil, fmt.Errorf("parsing ntfy server URL: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: ntfyTimeout}
	}

	return &Ntfy{
		base:     sling.New().Client(client).Base(server),
		topic:    topic,
		priority: "urgent",
		tags:     "rotating_light",
	}, nil
}

// Topic returns the topic messages are published to
func (n *Ntfy) Topic() string {
	return n.topic
}

// Notify publishes msg to the topic
func (n *Ntfy) Notify(ctx context.Context, msg Message) error {
	s := n.base.New().
		Post(url.PathEscape(n.topic)).
		Set("Title", msg.Title).
		Set("Priority", n.priority).
		Set("Tags", n.tags).
		Body(strings.NewReader(msg.Body))
	if msg.URL != "" {
		s = s.Set("Click", msg.URL)
	}

	req, err := s.Request()
	if err != nil {
		return fmt.Errorf("building ntfy request: %w", err)
	}

	var ok ntfyResponse
	var failure ntfyError
	resp, err := n.base.Do(req.WithContext(ctx), &ok, &failure)
	if err != nil {
		if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
			return fmt.Errorf("ntfy error (status %d)", resp.StatusCode)
		}
		return fmt.Errorf("publishing to ntfy: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if failure.Error != "" {
			return fmt.Errorf("ntfy error (status %d): %s", resp.StatusCode, failure.Error)
		}
		return fmt.Errorf("ntfy error (status %d)", resp.StatusCode)
	}

	return nil
}
