package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanNormalize(t *testing.T) {
	p := Plan{Version: 3}
	p.Normalize()

	assert.NotNil(t, p.Collaborators)
	assert.NotNil(t, p.Appointments)
	assert.NotNil(t, p.Bills)
	assert.Empty(t, p.Appointments)
}

func TestPlanNormalize_FromPayload(t *testing.T) {
	// collaborators null and appointments/bills absent must both coerce
	// to empty slices.
	raw := `{"planVersion": 7, "collaborators": null}`
	var p Plan
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	p.Normalize()

	assert.Equal(t, int64(7), p.Version)
	assert.Equal(t, []Collaborator{}, p.Collaborators)
	assert.Equal(t, []Appointment{}, p.Appointments)
	assert.Equal(t, []Bill{}, p.Bills)
}

func TestPlanClone_Independent(t *testing.T) {
	p := &Plan{
		Version:      2,
		Appointments: []Appointment{{ID: "a1", Title: "Checkup"}},
		Bills:        []Bill{{ID: "b1", Payee: "Clinic"}},
	}
	cp := p.Clone()

	cp.Appointments[0].Title = "Changed"
	cp.Bills = append(cp.Bills, Bill{ID: "b2"})

	assert.Equal(t, "Checkup", p.Appointments[0].Title)
	assert.Len(t, p.Bills, 1)
}

func TestPlanClone_Nil(t *testing.T) {
	var p *Plan
	assert.Nil(t, p.Clone())
}

func TestMedicationNextPendingOccurrence(t *testing.T) {
	med := Medication{
		ID: "m1",
		Doses: []Dose{
			{ID: "d1", Occurrences: []Occurrence{
				{ID: "o1", ScheduledFor: mustTime(t, "2026-03-01T12:00:00Z"), Status: OccurrenceTaken},
				{ID: "o2", ScheduledFor: mustTime(t, "2026-03-01T18:00:00Z"), Status: OccurrencePending},
			}},
			{ID: "d2", Occurrences: []Occurrence{
				{ID: "o3", ScheduledFor: mustTime(t, "2026-03-01T15:00:00Z"), Status: OccurrencePending},
			}},
		},
	}

	occ, ok := med.NextPendingOccurrence()
	require.True(t, ok)
	assert.Equal(t, "o3", occ.ID)
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestMedicationNextPendingOccurrence_NonePending(t *testing.T) {
	med := Medication{
		Doses: []Dose{{Occurrences: []Occurrence{
			{ID: "o1", Status: OccurrenceSkipped},
			{ID: "o2", Status: OccurrenceExpired},
		}}},
	}
	_, ok := med.NextPendingOccurrence()
	assert.False(t, ok)
}
