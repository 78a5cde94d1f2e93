package planapi

import (
	"context"

	"carelink/models"
)

// PlanAPI is the remote transport for the household plan. The engine never
// talks to the network beyond these calls.
type PlanAPI interface {
	// FetchPlan returns the full normalized plan aggregate.
	FetchPlan(ctx context.Context) (*models.Plan, error)
	// FetchPlanVersion is the lightweight staleness probe. Absent or
	// non-numeric versions resolve to 0.
	FetchPlanVersion(ctx context.Context) (int64, error)
}

// MedicationAPI fetches the medication list the reminder scheduler consumes.
type MedicationAPI interface {
	FetchMedications(ctx context.Context) ([]models.Medication, error)
}
