// File: services/medwatch/watcher.go
package medwatch

import (
	"context"
	stdsync "sync"

	"carelink/services/planapi"
	"carelink/services/reminder"
	"carelink/services/sync"

	"go.uber.org/zap"
)

// Watcher re-runs reminder reconciliation whenever the plan advances. It
// keeps the reminder scheduler a pure consumer: meds come from the API,
// the trigger comes from engine updates.
type Watcher struct {
	Sync      sync.PlanSyncService
	Meds      planapi.MedicationAPI
	Reminders reminder.ReminderService
	Logger    *zap.Logger

	mu          stdsync.Mutex
	lastVersion int64
	hadPlan     bool
}

// Start subscribes to engine updates and returns the unsubscribe func.
func (w *Watcher) Start(ctx context.Context) (stop func()) {
	return w.Sync.Subscribe(func(snap sync.Snapshot) {
		w.onUpdate(ctx, snap)
	})
}

func (w *Watcher) onUpdate(ctx context.Context, snap sync.Snapshot) {
	w.mu.Lock()
	if snap.Plan == nil {
		if !w.hadPlan {
			w.mu.Unlock()
			return
		}
		// Signed out (or plan discarded): clear every owned reminder.
		w.hadPlan = false
		w.lastVersion = 0
		w.mu.Unlock()
		go w.Reminders.Reconcile(ctx, nil)
		return
	}
	if w.hadPlan && snap.LatestVersion == w.lastVersion {
		// Flag-only change; the medication list cannot have moved.
		w.mu.Unlock()
		return
	}
	w.hadPlan = true
	w.lastVersion = snap.LatestVersion
	w.mu.Unlock()

	// Reconciliation is a background side effect; never block the
	// engine's notify path.
	go func() {
		meds, err := w.Meds.FetchMedications(ctx)
		if err != nil {
			w.Logger.Warn("medwatch: medication fetch failed", zap.Error(err))
			return
		}
		w.Reminders.Reconcile(ctx, meds)
	}()
}
