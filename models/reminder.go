package models

// ReminderPayload is carried inside a scheduled reminder task. It holds
// enough to deliver the push and deep-link back to the right record when
// the notification is tapped.
type ReminderPayload struct {
	ReminderID   string `json:"reminderId"`
	MedicationID string `json:"medicationId"`
	IntakeID     string `json:"intakeId"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	FireDate     string `json:"fireDate"`
}
