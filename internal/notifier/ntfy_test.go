package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNtfy_Notify(t *testing.T) {
	var gotPath, gotBody string
	var gotHeader http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotHeader = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc123","time":1700000000,"event":"message","topic":"cosc31-seats"}`))
	}))
	defer server.Close()

	n, err := NewNtfy(server.URL, "cosc31-seats", server.Client())
	if err != nil {
		t.Fatalf("NewNtfy() error: %v", err)
	}

	if err := n.Notify(context.Background(), testMessage); err != nil {
		t.Fatalf("Notify() error: %v", err)
	}

	if gotPath != "/cosc31-seats" {
		t.Errorf("path = %q, want /cosc31-seats", gotPath)
	}
	if gotBody != testMessage.Body {
		t.Errorf("body = %q, want %q", gotBody, testMessage.Body)
	}
	if gotHeader.Get("Title") != testMessage.Title {
		t.Errorf("Title header = %q", gotHeader.Get("Title"))
	}
	if gotHeader.Get("Click") != testMessage.URL {
		t.Errorf("Click header = %q", gotHeader.Get("Click"))
	}
	if gotHeader.Get("Priority") != "urgent" {
		t.Errorf("Priority header = %q", gotHeader.Get("Priority"))
	}
}

func TestNtfy_ErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
	}{
		{
			name:     "json error body",
			status:   http.StatusTooManyRequests,
			body:     `{"code":42901,"http":429,"error":"limit reached: too many requests"}`,
			wantText: "limit reached",
		},
		{
			name:     "empty error body",
			status:   http.StatusForbidden,
			wantText: "403",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.body != "" {
					w.Header().Set("Content-Type", "application/json")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			n, err := NewNtfy(server.URL+"/", "topic", server.Client())
			if err != nil {
				t.Fatalf("NewNtfy() error: %v", err)
			}

			err = n.Notify(context.Background(), testMessage)
			if err == nil {
				t.Fatal("Notify() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Notify() error = %v, want it to mention %q", err, tt.wantText)
			}
		})
	}
}

func TestNtfy_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL
	server.Close()

	n, err := NewNtfy(endpoint, "topic", nil)
	if err != nil {
		t.Fatalf("NewNtfy() error: %v", err)
	}
	if err := n.Notify(context.Background(), testMessage); err == nil {
		t.Error("Notify() expected connection error, got nil")
	}
}

func TestNewNtfy(t *testing.T) {
	if _, err := NewNtfy("", "  ", nil); err == nil {
		t.Error("NewNtfy() with empty topic expected error")
	}

	n, err := NewNtfy("", "seats", nil)
	if err != nil {
		t.Fatalf("NewNtfy() error: %v", err)
	}
	if n.Topic() != "seats" {
		t.Errorf("Topic() = %q, want seats", n.Topic())
	}
}
