// Package notify delivers user-visible timer messages.
package notify

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Notifier emits a message to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, message string) error

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// New returns the notifier selected by kind. command is only used for "command".
func New(kind, command string, w io.Writer) (Notifier, error) {
	switch kind {
	case "dbus":
		return NewDBus("pomo"), nil
	case "command":
		return NewCommand(command)
	case "terminal":
		return NewWriter(w), nil
	case "none":
		return Func(func(context.Context, string) error { return nil }), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", kind)
	}
}

// Writer prints messages followed by a terminal bell.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer notifier.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify implements Notifier.
func (n *Writer) Notify(_ context.Context, message string) error {
	_, err := fmt.Fprintf(n.w, "%s\a\n", message)
	return err
}

// Command runs an external program with the message as its last argument.
type Command struct {
	name string
	args []string
}

// NewCommand parses a whitespace-separated command line.
func NewCommand(command string) (*Command, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("notify command is empty")
	}
	return &Command{name: parts[0], args: parts[1:]}, nil
}

// Notify implements Notifier.
func (n *Command) Notify(ctx context.Context, message string) error {
	args := append(append([]string(nil), n.args...), message)
	out, err := exec.CommandContext(ctx, n.name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("notify command %s failed: %w: %s", n.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
