package models

import "time"

// OccurrenceStatus tracks whether a dose instance was acknowledged.
type OccurrenceStatus string

const (
	OccurrencePending OccurrenceStatus = "pending"
	OccurrenceTaken   OccurrenceStatus = "taken"
	OccurrenceSkipped OccurrenceStatus = "skipped"
	OccurrenceExpired OccurrenceStatus = "expired"
)

// Occurrence is one concrete scheduled instance of a dose on a specific day.
type Occurrence struct {
	ID           string           `json:"id"`
	ScheduledFor time.Time        `json:"scheduledFor"`
	Status       OccurrenceStatus `json:"status"`
}

// Dose is one recurring intake of a medication (e.g. "morning, 10mg").
type Dose struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Occurrences []Occurrence `json:"occurrences"`
}

type Medication struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Dosage   string `json:"dosage,omitempty"`
	Archived bool   `json:"archived"`
	Doses    []Dose `json:"doses"`
}

// NextPendingOccurrence returns the earliest occurrence across all doses
// that has not been acknowledged yet.
func (m Medication) NextPendingOccurrence() (Occurrence, bool) {
	var best Occurrence
	found := false
	for _, d := range m.Doses {
		for _, occ := range d.Occurrences {
			if occ.Status != OccurrencePending {
				continue
			}
			if !found || occ.ScheduledFor.Before(best.ScheduledFor) {
				best = occ
				found = true
			}
		}
	}
	return best, found
}
