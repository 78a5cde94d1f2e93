package sync

import "carelink/models"

// User-facing toast copy derived from the last refresh attempt.
const (
	ToastUpdated       = "Your plan is up to date."
	ToastLoadFailed    = "We couldn't load your plan. Check your connection and try again."
	ToastShowingSaved  = "Couldn't refresh right now — showing saved plan data."
	ToastQuietlySynced = "Plan synced."
)

// ToastFor maps a completed refresh attempt to the message the UI should
// show, if any. It is a pure function of the attempt plus whether a plan
// is currently held.
func ToastFor(last *models.RefreshAttempt, hasPlan bool) string {
	if last == nil {
		return ""
	}
	switch {
	case last.Source == models.SourceManual && last.Success:
		return ToastUpdated
	case last.Source == models.SourceManual && !last.Success && !hasPlan:
		return ToastLoadFailed
	case last.Source == models.SourceManual && !last.Success && hasPlan:
		return ToastShowingSaved
	case last.Source == models.SourceRealtime && last.Silent && last.Success:
		return ToastQuietlySynced
	default:
		return ""
	}
}
