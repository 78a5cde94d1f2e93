package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carelink/models"
)

func newTestManager() *Manager {
	return NewManager(nil, "carelink:deltas", zap.NewNop())
}

func TestDispatch_WellFormedBatchReachesBatchSubscribers(t *testing.T) {
	m := newTestManager()

	var got []models.DeltaBatch
	m.SubscribeBatches(func(b models.DeltaBatch) { got = append(got, b) })

	refreshes := 0
	m.SubscribeRefreshNeeded(func() { refreshes++ })

	m.dispatch([]byte(`{"deltas": [{"itemType": "appointment", "entityId": "a1", "action": "updated", "version": 3}]}`))

	require.Len(t, got, 1)
	require.Len(t, got[0].Deltas, 1)
	assert.Equal(t, models.ItemAppointment, got[0].Deltas[0].ItemType)
	assert.Equal(t, "a1", got[0].Deltas[0].EntityID)
	assert.Equal(t, int64(3), got[0].Deltas[0].Version)
	assert.Zero(t, refreshes, "well-formed batch must not signal refresh")
}

func TestDispatch_UnparsablePayloadSignalsRefresh(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"deltas": [`},
		{"not an object", `"hello"`},
		{"missing deltas", `{}`},
		{"null deltas", `{"deltas": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager()

			batches := 0
			m.SubscribeBatches(func(models.DeltaBatch) { batches++ })
			refreshes := 0
			m.SubscribeRefreshNeeded(func() { refreshes++ })

			m.dispatch([]byte(tt.payload))

			assert.Zero(t, batches)
			assert.Equal(t, 1, refreshes)
		})
	}
}

func TestDispatch_EmptyBatchStillDelivered(t *testing.T) {
	m := newTestManager()

	batches := 0
	m.SubscribeBatches(func(models.DeltaBatch) { batches++ })
	refreshes := 0
	m.SubscribeRefreshNeeded(func() { refreshes++ })

	m.dispatch([]byte(`{"deltas": []}`))

	assert.Equal(t, 1, batches)
	assert.Zero(t, refreshes)
}

func TestSubscribeBatches_UnsubscribeStopsDelivery(t *testing.T) {
	m := newTestManager()

	first, second := 0, 0
	unsub := m.SubscribeBatches(func(models.DeltaBatch) { first++ })
	m.SubscribeBatches(func(models.DeltaBatch) { second++ })

	m.dispatch([]byte(`{"deltas": []}`))
	unsub()
	m.dispatch([]byte(`{"deltas": []}`))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestSetStatus_NotifiesOnTransitionOnly(t *testing.T) {
	m := newTestManager()
	assert.Equal(t, Disconnected, m.ConnectionStatus())

	var seen []Status
	unsub := m.SubscribeStatus(func(s Status) { seen = append(seen, s) })

	m.setStatus(Connected)
	m.setStatus(Connected) // no transition, no callback
	m.setStatus(Disconnected)

	assert.Equal(t, []Status{Connected, Disconnected}, seen)
	assert.Equal(t, Disconnected, m.ConnectionStatus())

	unsub()
	m.setStatus(Connected)
	assert.Equal(t, []Status{Connected, Disconnected}, seen)
}
