package reminder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"carelink/models"
	"carelink/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultReminderService is the production ReminderService.
type DefaultReminderService struct {
	Registry    NotificationRegistry
	Permissions PermissionChecker
	Clock       utils.Clock
	Logger      *zap.Logger

	// Lookahead bounds how far into the future a dose may be and still
	// get a reminder. MaxScheduled caps concurrently scheduled entries.
	// OverdueDelay is the push-forward for doses already in the past.
	Lookahead    time.Duration
	MaxScheduled int
	OverdueDelay time.Duration
}

var _ ReminderService = (*DefaultReminderService)(nil)

type candidate struct {
	med models.Medication
	occ models.Occurrence
}

// Reconcile rebuilds the scheduled reminder set from scratch: cancel every
// owned entry, then schedule the bounded candidate list. The cancel is
// awaited before any schedule call, so a re-run can never leave duplicate
// reminders behind.
func (s *DefaultReminderService) Reconcile(ctx context.Context, medications []models.Medication) {
	if !s.Permissions.Granted(ctx) {
		// Permission revoked mid-session: leave no partial state behind.
		if err := s.Registry.CancelOwned(ctx); err != nil {
			s.Logger.Warn("reminder: cancel on permission denial failed", zap.Error(err))
		}
		return
	}

	if err := s.Registry.CancelOwned(ctx); err != nil {
		s.Logger.Warn("reminder: cancel before reschedule failed", zap.Error(err))
	}

	now := s.Clock.Now()
	horizon := now.Add(s.Lookahead)

	var candidates []candidate
	for _, med := range medications {
		if med.Archived {
			continue
		}
		occ, ok := med.NextPendingOccurrence()
		if !ok {
			continue
		}
		if occ.ScheduledFor.After(horizon) {
			continue
		}
		candidates = append(candidates, candidate{med: med, occ: occ})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].occ.ScheduledFor.Before(candidates[j].occ.ScheduledFor)
	})
	if len(candidates) > s.MaxScheduled {
		candidates = candidates[:s.MaxScheduled]
	}

	scheduled := 0
	for _, c := range candidates {
		fireAt := c.occ.ScheduledFor
		if !fireAt.After(now) {
			// Overdue doses still get a near-term nudge.
			fireAt = now.Add(s.OverdueDelay)
		}

		payload := models.ReminderPayload{
			ReminderID:   uuid.NewString(),
			MedicationID: c.med.ID,
			IntakeID:     c.occ.ID,
			Title:        fmt.Sprintf("Time for %s", c.med.Name),
			Body:         reminderBody(c.med),
			FireDate:     fireAt.UTC().Format(time.RFC3339),
		}
		if err := s.Registry.Schedule(ctx, payload, fireAt); err != nil {
			s.Logger.Warn("reminder: schedule failed",
				zap.String("medicationId", c.med.ID),
				zap.String("intakeId", c.occ.ID),
				zap.Error(err))
			continue
		}
		scheduled++
	}

	s.Logger.Info("reminder: reconciled",
		zap.Int("medications", len(medications)),
		zap.Int("candidates", len(candidates)),
		zap.Int("scheduled", scheduled))
}

func reminderBody(med models.Medication) string {
	if med.Dosage != "" {
		return fmt.Sprintf("Take %s (%s).", med.Name, med.Dosage)
	}
	return fmt.Sprintf("Take %s.", med.Name)
}
