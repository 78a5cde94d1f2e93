package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"carelink/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Status of the push channel connection. The polling fallback is active
// only while the channel reports Disconnected.
type Status string

const (
	Connected    Status = "connected"
	Disconnected Status = "disconnected"
)

// Manager owns the push-based delta channel: one Redis pub/sub
// subscription shared across the process, constructed once at startup and
// injected wherever deltas are consumed. Listener registration goes
// through explicit subscribe calls returning an unsubscribe func; there is
// no ambient global listener set.
type Manager struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger

	mu          sync.Mutex
	status      Status
	nextID      int
	batchSubs   map[int]func(models.DeltaBatch)
	invalidSubs map[int]func()
	statusSubs  map[int]func(Status)
}

func NewManager(client *redis.Client, channel string, logger *zap.Logger) *Manager {
	return &Manager{
		client:      client,
		channel:     channel,
		logger:      logger,
		status:      Disconnected,
		batchSubs:   map[int]func(models.DeltaBatch){},
		invalidSubs: map[int]func(){},
		statusSubs:  map[int]func(Status){},
	}
}

// SubscribeBatches registers fn for every well-formed delta batch.
func (m *Manager) SubscribeBatches(fn func(models.DeltaBatch)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.batchSubs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.batchSubs, id)
	}
}

// SubscribeRefreshNeeded registers fn for unparsable batches. A payload
// that cannot be decoded still means the plan changed, so it is surfaced
// as "refresh needed" rather than dropped.
func (m *Manager) SubscribeRefreshNeeded(fn func()) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.invalidSubs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.invalidSubs, id)
	}
}

// SubscribeStatus registers fn for connection status transitions.
func (m *Manager) SubscribeStatus(fn func(Status)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.statusSubs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.statusSubs, id)
	}
}

func (m *Manager) ConnectionStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if m.status == s {
		m.mu.Unlock()
		return
	}
	m.status = s
	subs := make([]func(Status), 0, len(m.statusSubs))
	for _, fn := range m.statusSubs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Run blocks on the subscription until ctx is canceled. Receive errors
// flip the status to Disconnected and the loop keeps trying; go-redis
// re-establishes the underlying subscription on its own.
func (m *Manager) Run(ctx context.Context) {
	pubsub := m.client.Subscribe(ctx, m.channel)
	defer pubsub.Close()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if ctx.Err() != nil {
			m.setStatus(Disconnected)
			return
		}
		if err != nil {
			m.logger.Warn("realtime: receive failed", zap.Error(err))
			m.setStatus(Disconnected)
			continue
		}
		m.setStatus(Connected)
		m.dispatch([]byte(msg.Payload))
	}
}

func (m *Manager) dispatch(payload []byte) {
	var batch models.DeltaBatch
	if err := json.Unmarshal(payload, &batch); err != nil || batch.Deltas == nil {
		m.logger.Warn("realtime: unparsable delta batch, signaling refresh",
			zap.Int("bytes", len(payload)))
		m.mu.Lock()
		subs := make([]func(), 0, len(m.invalidSubs))
		for _, fn := range m.invalidSubs {
			subs = append(subs, fn)
		}
		m.mu.Unlock()
		for _, fn := range subs {
			fn()
		}
		return
	}

	m.mu.Lock()
	subs := make([]func(models.DeltaBatch), 0, len(m.batchSubs))
	for _, fn := range m.batchSubs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()
	for _, fn := range subs {
		fn(batch)
	}
}
