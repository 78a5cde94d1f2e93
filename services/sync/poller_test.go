package sync

import (
	"context"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"carelink/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// stepClock releases one poll tick per value sent on steps.
type stepClock struct {
	steps chan struct{}
}

func (c *stepClock) Now() time.Time { return time.Now() }

func (c *stepClock) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.steps:
		return nil
	}
}

type fakeSyncService struct {
	mu          stdsync.Mutex
	probeCalls  []models.RefreshSource
	probeSignal chan struct{}
}

var _ PlanSyncService = (*fakeSyncService)(nil)

func (f *fakeSyncService) Hydrate(context.Context) {}
func (f *fakeSyncService) Refresh(context.Context, models.RefreshSource, bool) (RefreshOutcome, error) {
	return RefreshOutcome{Success: true, Attempts: 1}, nil
}
func (f *fakeSyncService) RefreshIfVersionChanged(_ context.Context, source models.RefreshSource) {
	f.mu.Lock()
	f.probeCalls = append(f.probeCalls, source)
	f.mu.Unlock()
	if f.probeSignal != nil {
		f.probeSignal <- struct{}{}
	}
}
func (f *fakeSyncService) ApplyDelta(context.Context, models.PlanDelta) {}
func (f *fakeSyncService) Snapshot() Snapshot                          { return Snapshot{} }
func (f *fakeSyncService) Subscribe(func(Snapshot)) func()             { return func() {} }
func (f *fakeSyncService) SignOut(context.Context)                     {}

func (f *fakeSyncService) probes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.probeCalls)
}

type staticSession bool

func (s staticSession) SignedIn(context.Context) bool { return bool(s) }
func (s staticSession) Token(context.Context) string  { return "t" }

func TestPoller_ProbesEachTickWhileDisconnected(t *testing.T) {
	clock := &stepClock{steps: make(chan struct{})}
	svc := &fakeSyncService{probeSignal: make(chan struct{}, 3)}
	p := &Poller{
		Sync:      svc,
		Session:   staticSession(true),
		Clock:     clock,
		Interval:  time.Minute,
		Connected: func() bool { return false },
		Logger:    zap.NewNop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		clock.steps <- struct{}{}
		<-svc.probeSignal
	}
	cancel()
	<-done

	assert.Equal(t, 3, svc.probes())
	for _, source := range svc.probeCalls {
		assert.Equal(t, models.SourcePoll, source)
	}
}

func TestPoller_DormantWhileRealtimeConnected(t *testing.T) {
	clock := &stepClock{steps: make(chan struct{})}
	svc := &fakeSyncService{}
	ticked := make(chan struct{}, 2)
	p := &Poller{
		Sync:     svc,
		Session:  staticSession(true),
		Clock:    clock,
		Interval: time.Minute,
		Connected: func() bool {
			ticked <- struct{}{}
			return true
		},
		Logger: zap.NewNop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	clock.steps <- struct{}{}
	<-ticked
	clock.steps <- struct{}{}
	<-ticked
	cancel()
	<-done

	assert.Zero(t, svc.probes())
}

func TestPoller_SkipsWhileSignedOut(t *testing.T) {
	clock := &stepClock{steps: make(chan struct{})}
	svc := &fakeSyncService{}
	var checked atomic.Int32
	p := &Poller{
		Sync:     svc,
		Session:  sessionFunc(func() bool { checked.Add(1); return false }),
		Clock:    clock,
		Interval: time.Minute,
		Logger:   zap.NewNop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	clock.steps <- struct{}{}
	for checked.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	assert.Zero(t, svc.probes())
}

type sessionFunc func() bool

func (f sessionFunc) SignedIn(context.Context) bool { return f() }
func (f sessionFunc) Token(context.Context) string  { return "" }
