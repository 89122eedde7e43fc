package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/pfrederiksen/seat-watch/internal/logger"
)

func TestDelayed_DeliversAfterDelay(t *testing.T) {
	next := &recorder{}
	d := NewDelayed(context.Background(), "friends", next, 20*time.Millisecond, logger.Discard())

	start := time.Now()
	if err := d.Notify(context.Background(), testMessage); err != nil {
		t.Fatalf("Notify() error: %v", err)
	}
	if next.count() != 0 {
		t.Error("delivered before the delay elapsed")
	}

	d.Wait()

	if next.count() != 1 {
		t.Errorf("delivered %d times, want 1", next.count())
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("delivered too early")
	}
}

func TestDelayed_DroppedOnCancel(t *testing.T) {
	next := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDelayed(ctx, "friends", next, time.Hour, logger.Discard())

	_ = d.Notify(context.Background(), testMessage)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after cancel")
	}
	if next.count() != 0 {
		t.Errorf("delivered %d times after cancel, want 0", next.count())
	}
}

func TestDelayed_IgnoresCallerContext(t *testing.T) {
	next := &recorder{}
	d := NewDelayed(context.Background(), "friends", next, 10*time.Millisecond, logger.Discard())

	// Multi cancels each channel's context as soon as Notify returns
	callCtx, cancel := context.WithCancel(context.Background())
	_ = d.Notify(callCtx, testMessage)
	cancel()

	d.Wait()
	if next.count() != 1 {
		t.Errorf("delivered %d times, want 1", next.count())
	}
}

func TestDelayed_DeliveryHasDeadline(t *testing.T) {
	var hasDeadline bool
	next := NotifierFunc(func(ctx context.Context, _ Message) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	d := NewDelayed(context.Background(), "friends", next, time.Millisecond, logger.Discard())
	_ = d.Notify(context.Background(), testMessage)
	d.Wait()

	if !hasDeadline {
		t.Error("delayed delivery ran without a deadline")
	}
}

func TestDelayed_StalledDeliveryDoesNotBlockWait(t *testing.T) {
	tests := []struct {
		name string
		next func(t *testing.T) Notifier
	}{
		{
			name: "notifier ignoring its context",
			next: func(t *testing.T) Notifier {
				block := make(chan struct{})
				t.Cleanup(func() { close(block) })
				return NotifierFunc(func(context.Context, Message) error {
					<-block
					return nil
				})
			},
		},
		{
			name: "stalled SMTP server",
			next: func(t *testing.T) Notifier {
				host, port := stalledSMTPServer(t)
				e, err := NewEmail(EmailConfig{Host: host, Port: port, Username: "me@example.com", To: []string{"friend@example.com"}})
				if err != nil {
					t.Fatalf("NewEmail() error: %v", err)
				}
				return e
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDelayed(context.Background(), "friends", tt.next(t), time.Millisecond, logger.Discard()).
				WithTimeout(100 * time.Millisecond)
			_ = d.Notify(context.Background(), testMessage)

			done := make(chan struct{})
			go func() {
				d.Wait()
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("Wait() blocked on a stalled delivery")
			}
		})
	}
}
