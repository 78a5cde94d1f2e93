package sync

import (
	"encoding/json"

	"carelink/models"
)

// Reduce applies one delta to a plan snapshot, copy-on-write. It returns
// the new snapshot and true when the delta applied, or (nil, false) when
// it cannot be applied deterministically: a missing item, an unrecognized
// item type, or a malformed payload. The caller falls back to a full
// refresh in that case; the reducer never guesses.
//
// Replace-by-id semantics make application idempotent: the same delta
// twice yields the same plan as once.
func Reduce(plan *models.Plan, delta models.PlanDelta) (*models.Plan, bool) {
	switch delta.ItemType {
	case models.ItemAppointment:
		return reduceAppointment(plan, delta)
	case models.ItemBill:
		return reduceBill(plan, delta)
	default:
		// Closed world: new item types need an explicit case here, not a
		// generic handler that could silently mis-merge unknown shapes.
		return nil, false
	}
}

func reduceAppointment(plan *models.Plan, delta models.PlanDelta) (*models.Plan, bool) {
	switch delta.Action {
	case models.ActionDeleted:
		idx := indexOfAppointment(plan.Appointments, delta.EntityID)
		if idx < 0 {
			// Deleting something we never had is ambiguous enough to
			// warrant a reconciling fetch rather than a silent no-op.
			return nil, false
		}
		next := plan.Clone()
		next.Appointments = append(next.Appointments[:idx], next.Appointments[idx+1:]...)
		return next, true

	case models.ActionCreated, models.ActionUpdated:
		record, ok := decodeAppointment(delta)
		if !ok {
			return nil, false
		}
		next := plan.Clone()
		if idx := indexOfAppointment(next.Appointments, delta.EntityID); idx >= 0 {
			next.Appointments[idx] = record
		} else {
			// Newest-first convention for freshly created items.
			next.Appointments = append([]models.Appointment{record}, next.Appointments...)
		}
		return next, true

	default:
		return nil, false
	}
}

func reduceBill(plan *models.Plan, delta models.PlanDelta) (*models.Plan, bool) {
	switch delta.Action {
	case models.ActionDeleted:
		idx := indexOfBill(plan.Bills, delta.EntityID)
		if idx < 0 {
			return nil, false
		}
		next := plan.Clone()
		next.Bills = append(next.Bills[:idx], next.Bills[idx+1:]...)
		return next, true

	case models.ActionCreated, models.ActionUpdated:
		record, ok := decodeBill(delta)
		if !ok {
			return nil, false
		}
		next := plan.Clone()
		if idx := indexOfBill(next.Bills, delta.EntityID); idx >= 0 {
			next.Bills[idx] = record
		} else {
			next.Bills = append([]models.Bill{record}, next.Bills...)
		}
		return next, true

	default:
		return nil, false
	}
}

func decodeAppointment(delta models.PlanDelta) (models.Appointment, bool) {
	if len(delta.Data) == 0 || delta.EntityID == "" {
		return models.Appointment{}, false
	}
	var record models.Appointment
	if err := json.Unmarshal(delta.Data, &record); err != nil {
		return models.Appointment{}, false
	}
	if record.ID == "" {
		record.ID = delta.EntityID
	}
	if record.ID != delta.EntityID {
		return models.Appointment{}, false
	}
	return record, true
}

func decodeBill(delta models.PlanDelta) (models.Bill, bool) {
	if len(delta.Data) == 0 || delta.EntityID == "" {
		return models.Bill{}, false
	}
	var record models.Bill
	if err := json.Unmarshal(delta.Data, &record); err != nil {
		return models.Bill{}, false
	}
	if record.ID == "" {
		record.ID = delta.EntityID
	}
	if record.ID != delta.EntityID {
		return models.Bill{}, false
	}
	return record, true
}

func indexOfAppointment(items []models.Appointment, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfBill(items []models.Bill, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
