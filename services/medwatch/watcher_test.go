package medwatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carelink/models"
	"carelink/services/planapi"
	"carelink/services/reminder"
	"carelink/services/sync"
)

type fakeMedsAPI struct {
	meds []models.Medication
	err  error
}

var _ planapi.MedicationAPI = (*fakeMedsAPI)(nil)

func (f *fakeMedsAPI) FetchMedications(ctx context.Context) ([]models.Medication, error) {
	return f.meds, f.err
}

type fakeReminderService struct {
	calls chan []models.Medication
}

var _ reminder.ReminderService = (*fakeReminderService)(nil)

func newFakeReminderService() *fakeReminderService {
	return &fakeReminderService{calls: make(chan []models.Medication, 8)}
}

func (f *fakeReminderService) Reconcile(ctx context.Context, meds []models.Medication) {
	f.calls <- meds
}

func (f *fakeReminderService) waitForCall(t *testing.T) []models.Medication {
	t.Helper()
	select {
	case meds := <-f.calls:
		return meds
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reconcile")
		return nil
	}
}

func (f *fakeReminderService) assertNoCall(t *testing.T) {
	t.Helper()
	select {
	case <-f.calls:
		t.Fatal("unexpected reconcile call")
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestWatcher(meds *fakeMedsAPI, rem *fakeReminderService) *Watcher {
	return &Watcher{
		Meds:      meds,
		Reminders: rem,
		Logger:    zap.NewNop(),
	}
}

func snapWithVersion(v int64) sync.Snapshot {
	return sync.Snapshot{
		Plan:          &models.Plan{Version: v},
		LatestVersion: v,
	}
}

func TestOnUpdate_VersionAdvanceTriggersReconcile(t *testing.T) {
	meds := &fakeMedsAPI{meds: []models.Medication{{ID: "m1", Name: "Metformin"}}}
	rem := newFakeReminderService()
	w := newTestWatcher(meds, rem)

	w.onUpdate(context.Background(), snapWithVersion(3))

	got := rem.waitForCall(t)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestOnUpdate_SameVersionSkipsReconcile(t *testing.T) {
	meds := &fakeMedsAPI{}
	rem := newFakeReminderService()
	w := newTestWatcher(meds, rem)

	w.onUpdate(context.Background(), snapWithVersion(3))
	rem.waitForCall(t)

	// Flag-only updates (loading toggles, error text) carry the same
	// version and must not re-fetch medications.
	w.onUpdate(context.Background(), snapWithVersion(3))
	rem.assertNoCall(t)
}

func TestOnUpdate_NewVersionReconcilesAgain(t *testing.T) {
	meds := &fakeMedsAPI{}
	rem := newFakeReminderService()
	w := newTestWatcher(meds, rem)

	w.onUpdate(context.Background(), snapWithVersion(3))
	rem.waitForCall(t)

	w.onUpdate(context.Background(), snapWithVersion(4))
	rem.waitForCall(t)
}

func TestOnUpdate_PlanClearedCancelsReminders(t *testing.T) {
	meds := &fakeMedsAPI{}
	rem := newFakeReminderService()
	w := newTestWatcher(meds, rem)

	w.onUpdate(context.Background(), snapWithVersion(3))
	rem.waitForCall(t)

	w.onUpdate(context.Background(), sync.Snapshot{Plan: nil})
	got := rem.waitForCall(t)
	assert.Nil(t, got, "sign-out reconcile carries no medications")
}

func TestOnUpdate_NilPlanBeforeFirstPlanIsNoop(t *testing.T) {
	meds := &fakeMedsAPI{}
	rem := newFakeReminderService()
	w := newTestWatcher(meds, rem)

	w.onUpdate(context.Background(), sync.Snapshot{Plan: nil})
	rem.assertNoCall(t)
}

func TestOnUpdate_FetchFailureSkipsReconcile(t *testing.T) {
	meds := &fakeMedsAPI{err: errors.New("api down")}
	rem := newFakeReminderService()
	w := newTestWatcher(meds, rem)

	w.onUpdate(context.Background(), snapWithVersion(3))
	rem.assertNoCall(t)
}
