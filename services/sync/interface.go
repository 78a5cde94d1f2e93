package sync

import (
	"context"

	"carelink/models"
)

// Snapshot is the read-only view handed to downstream consumers. The plan
// inside is a copy; all mutation flows through Refresh/ApplyDelta.
type Snapshot struct {
	Plan          *models.Plan           `json:"plan"`
	Loading       bool                   `json:"loading"`
	Refreshing    bool                   `json:"refreshing"`
	Error         string                 `json:"error,omitempty"`
	LatestVersion int64                  `json:"latestVersion"`
	LastUpdate    *models.RefreshAttempt `json:"lastUpdate,omitempty"`
}

// RefreshOutcome reports one completed (possibly coalesced) fetch cycle.
type RefreshOutcome struct {
	Success  bool `json:"success"`
	Attempts int  `json:"attempts"`
}

// PlanSyncService owns the authoritative in-memory plan, the latest
// observed version, and the refresh/retry/poll state machine.
type PlanSyncService interface {
	// Hydrate seeds state from the local cache before the first fetch
	// completes. Best effort; cache failures are swallowed.
	Hydrate(ctx context.Context)

	// Refresh runs one full fetch cycle. At most one refresh is in
	// flight at a time; concurrent callers await the in-flight cycle and
	// share its outcome.
	Refresh(ctx context.Context, source models.RefreshSource, silent bool) (RefreshOutcome, error)

	// RefreshIfVersionChanged probes the server version and triggers a
	// silent full refresh only if it advanced past the local one.
	// Best effort; failures are logged, never surfaced.
	RefreshIfVersionChanged(ctx context.Context, source models.RefreshSource)

	// ApplyDelta merges one push-channel delta into the held plan. A
	// delta that cannot be applied deterministically falls back to a
	// silent full refresh instead of risking divergent state.
	ApplyDelta(ctx context.Context, delta models.PlanDelta)

	// Snapshot returns the current engine state.
	Snapshot() Snapshot

	// Subscribe registers fn for state changes. Subscribers must not
	// call back into Refresh from the callback.
	Subscribe(fn func(Snapshot)) (unsubscribe func())

	// SignOut clears in-memory plan state and the cached snapshot. A
	// fetch result that lands after sign-out is discarded.
	SignOut(ctx context.Context)
}
