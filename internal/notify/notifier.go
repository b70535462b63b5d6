// Package notify defines the outbound notification collaborator.
//
// Notifications are strictly fire-and-forget: services invoke them in a
// goroutine after the primary operation has committed, and a notification
// failure never rolls back or blocks the operation that triggered it. The
// shipped implementation records the notification in the structured log;
// delivery over a real channel lives behind the same interface.
package notify

import (
	"context"
	"log/slog"
)

// Notifier sends account-lifecycle notifications.
type Notifier interface {
	// Welcome greets a newly registered user.
	Welcome(ctx context.Context, email, name string) error
	// Cancellation acknowledges an account deletion.
	Cancellation(ctx context.Context, email, name string) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Welcome(_ context.Context, email, name string) error {
	n.logger.Info("welcome notification",
		slog.String("email", email),
		slog.String("name", name),
	)
	return nil
}

func (n *LogNotifier) Cancellation(_ context.Context, email, name string) error {
	n.logger.Info("cancellation notification",
		slog.String("email", email),
		slog.String("name", name),
	)
	return nil
}
