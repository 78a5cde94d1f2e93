package models

import (
	"encoding/json"
	"time"
)

// DateRange is the window of days a plan covers, as "2006-01-02" dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Recipient is the household member the plan is organized around.
type Recipient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Collaborator is a household member with access to the plan.
type Collaborator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type Appointment struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Location   string    `json:"location,omitempty"`
	StartsAt   time.Time `json:"startsAt"`
	EndsAt     time.Time `json:"endsAt,omitempty"`
	AssigneeID string    `json:"assigneeId,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

type Bill struct {
	ID          string `json:"id"`
	Payee       string `json:"payee"`
	AmountCents int64  `json:"amountCents"`
	DueDate     string `json:"dueDate"`
	Paid        bool   `json:"paid"`
}

// Plan is the versioned aggregate of a household's appointments and bills.
// Version is server-assigned and monotonic; the locally-held snapshot never
// moves backwards.
type Plan struct {
	Version       int64          `json:"planVersion"`
	UpdatedAt     time.Time      `json:"planUpdatedAt"`
	DateRange     DateRange      `json:"dateRange"`
	Recipient     Recipient      `json:"recipient"`
	Collaborators []Collaborator `json:"collaborators"`
	Appointments  []Appointment  `json:"appointments"`
	Bills         []Bill         `json:"bills"`
}

// Normalize coerces absent collections to empty slices so consumers never
// see nil where the payload omitted a field.
func (p *Plan) Normalize() {
	if p.Collaborators == nil {
		p.Collaborators = []Collaborator{}
	}
	if p.Appointments == nil {
		p.Appointments = []Appointment{}
	}
	if p.Bills == nil {
		p.Bills = []Bill{}
	}
}

// Clone returns a deep copy. Delta application is copy-on-write, so
// downstream consumers can hold a snapshot without racing the engine.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Collaborators = append([]Collaborator(nil), p.Collaborators...)
	cp.Appointments = append([]Appointment(nil), p.Appointments...)
	cp.Bills = append([]Bill(nil), p.Bills...)
	cp.Normalize()
	return &cp
}

// DeltaItemType identifies which plan collection a delta targets.
type DeltaItemType string

const (
	ItemAppointment DeltaItemType = "appointment"
	ItemBill        DeltaItemType = "bill"
)

// DeltaAction is the change a delta carries.
type DeltaAction string

const (
	ActionCreated DeltaAction = "created"
	ActionUpdated DeltaAction = "updated"
	ActionDeleted DeltaAction = "deleted"
)

// PlanDelta describes one change to one plan item. Data is a full
// replacement payload for created/updated and absent for deleted, which
// makes applying the same delta twice equivalent to applying it once.
type PlanDelta struct {
	ItemType DeltaItemType   `json:"itemType"`
	EntityID string          `json:"entityId"`
	Action   DeltaAction     `json:"action"`
	Data     json.RawMessage `json:"data,omitempty"`
	Version  int64           `json:"version,omitempty"`
}

// DeltaBatch is the push-channel envelope for plan deltas.
type DeltaBatch struct {
	Deltas []PlanDelta `json:"deltas"`
}

// RefreshSource tags which channel initiated a fetch cycle.
type RefreshSource string

const (
	SourceInitial  RefreshSource = "initial"
	SourceManual   RefreshSource = "manual"
	SourcePoll     RefreshSource = "poll"
	SourceRealtime RefreshSource = "realtime"
)

// RefreshAttempt records the outcome of one fetch cycle. It is surfaced to
// the UI as "last update" metadata and never persisted.
type RefreshAttempt struct {
	ID        string        `json:"id"`
	Source    RefreshSource `json:"source"`
	Silent    bool          `json:"silent"`
	Success   bool          `json:"success"`
	Timestamp time.Time     `json:"timestamp"`
}
