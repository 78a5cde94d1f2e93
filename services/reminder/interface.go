package reminder

import (
	"context"
	"time"

	"carelink/models"
)

// NotificationRegistry is the schedulable device-notification surface.
// Entries created by this subsystem carry a private marker so CancelOwned
// can remove them without touching anything else; the registry is treated
// as fully disposable and rebuilt on every reconciliation pass.
type NotificationRegistry interface {
	// CancelOwned removes every reminder this subsystem scheduled.
	CancelOwned(ctx context.Context) error
	// Schedule registers one reminder to fire at fireAt.
	Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error
}

// PermissionChecker reports whether reminder notifications are allowed.
// Denial is a valid state, not an error.
type PermissionChecker interface {
	Granted(ctx context.Context) bool
}

// ReminderService reconciles the medication list into a bounded set of
// scheduled reminders. It runs as a background side effect of
// medication-list changes and never returns an error to its caller.
type ReminderService interface {
	Reconcile(ctx context.Context, medications []models.Medication)
}
