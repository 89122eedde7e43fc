package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DryRunNotifier prints what would be sent without delivering anything
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to out (stdout if nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the message
func (n *DryRunNotifier) Notify(_ context.Context, msg Message) error {
	fmt.Fprintln(n.out, "--- Notification (dry run) ---")
	fmt.Fprintln(n.out, msg.Title)
	fmt.Fprintln(n.out, msg.Body)
	if msg.URL != "" {
		fmt.Fprintln(n.out, msg.URL)
	}
	fmt.Fprintln(n.out)
	return nil
}
