package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"carelink/cache"
	"carelink/models"
	"carelink/services/planapi"
	"carelink/services/session"
	"carelink/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultPlanSyncService is the production PlanSyncService. It composes
// the remote transport, the delta reducer, and the local cache, and owns
// the only mutable copy of the plan in the process.
type DefaultPlanSyncService struct {
	API         planapi.PlanAPI
	Cache       cache.PlanCache
	Session     session.Checker
	Clock       utils.Clock
	Logger      *zap.Logger
	MaxAttempts int
	BaseDelay   time.Duration

	// OnSignOut is invoked after state is cleared, so the caller can tear
	// down the polling loop.
	OnSignOut func()

	flight singleflight.Group

	mu            stdsync.Mutex
	plan          *models.Plan
	latestVersion int64
	loading       bool
	refreshing    bool
	errMsg        string
	lastUpdate    *models.RefreshAttempt
	subs          map[int]func(Snapshot)
	nextSub       int
}

var _ PlanSyncService = (*DefaultPlanSyncService)(nil)

func NewDefaultPlanSyncService(
	api planapi.PlanAPI,
	planCache cache.PlanCache,
	sess session.Checker,
	clock utils.Clock,
	logger *zap.Logger,
	maxAttempts int,
	baseDelay time.Duration,
) *DefaultPlanSyncService {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &DefaultPlanSyncService{
		API:         api,
		Cache:       planCache,
		Session:     sess,
		Clock:       clock,
		Logger:      logger,
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		subs:        map[int]func(Snapshot){},
	}
}

// Hydrate loads the cached snapshot if no plan is held yet. The cache is
// an optimization: any failure is logged and forgotten.
func (s *DefaultPlanSyncService) Hydrate(ctx context.Context) {
	cached, err := s.Cache.Load(ctx)
	if err != nil {
		s.Logger.Debug("sync: cache hydrate failed", zap.Error(err))
		return
	}
	if cached == nil {
		return
	}

	s.mu.Lock()
	if s.plan != nil {
		// A refresh already landed; the network copy wins.
		s.mu.Unlock()
		return
	}
	s.plan = cached
	if cached.Version > s.latestVersion {
		s.latestVersion = cached.Version
	}
	s.mu.Unlock()
	s.notify()
}

// Refresh runs one fetch cycle. Concurrent callers are coalesced onto a
// single in-flight cycle and all observe its outcome.
func (s *DefaultPlanSyncService) Refresh(ctx context.Context, source models.RefreshSource, silent bool) (RefreshOutcome, error) {
	type result struct {
		outcome RefreshOutcome
		err     error
	}
	v, _, _ := s.flight.Do("plan-refresh", func() (any, error) {
		outcome, err := s.runRefresh(ctx, source, silent)
		return result{outcome, err}, nil
	})
	r := v.(result)
	return r.outcome, r.err
}

func (s *DefaultPlanSyncService) runRefresh(ctx context.Context, source models.RefreshSource, silent bool) (RefreshOutcome, error) {
	if !s.Session.SignedIn(ctx) {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return RefreshOutcome{}, ErrNotSignedIn
	}

	s.mu.Lock()
	// A blocking spinner only makes sense when there is nothing to show
	// yet; pull-to-refresh on a populated screen drives `refreshing`.
	s.loading = s.plan == nil && !silent
	s.refreshing = source == models.SourceManual
	s.mu.Unlock()
	s.notify()

	var fetched *models.Plan
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.Clock.Sleep(ctx, s.BaseDelay*time.Duration(attempt-1)); err != nil {
				lastErr = err
				break
			}
		}
		attempts = attempt
		plan, err := s.API.FetchPlan(ctx)
		if err == nil {
			fetched = plan
			break
		}
		lastErr = err
		s.Logger.Warn("sync: fetch attempt failed",
			zap.Int("attempt", attempt),
			zap.String("source", string(source)),
			zap.Error(err))
	}

	finishedAt := s.Clock.Now()

	s.mu.Lock()
	if !s.Session.SignedIn(ctx) {
		// Signed out while the fetch was in flight: discard the result so
		// a stale signed-in plan cannot reappear.
		s.loading = false
		s.refreshing = false
		s.mu.Unlock()
		s.notify()
		return RefreshOutcome{Attempts: attempts}, ErrNotSignedIn
	}

	if fetched != nil {
		fetched.Normalize()
		s.plan = fetched
		if fetched.Version > s.latestVersion {
			s.latestVersion = fetched.Version
		}
		s.errMsg = ""
		s.persistLocked(fetched)
	} else {
		// Retry budget exhausted: surface the retry prompt but keep the
		// last-known-good plan untouched.
		s.errMsg = UserRetryMessage
	}

	s.lastUpdate = &models.RefreshAttempt{
		ID:        uuid.NewString(),
		Source:    source,
		Silent:    silent,
		Success:   fetched != nil,
		Timestamp: finishedAt,
	}
	s.loading = false
	s.refreshing = false
	s.mu.Unlock()
	s.notify()

	if fetched == nil {
		return RefreshOutcome{Attempts: attempts}, fmt.Errorf("sync: refresh exhausted %d attempts: %w", attempts, lastErr)
	}
	return RefreshOutcome{Success: true, Attempts: attempts}, nil
}

// persistLocked writes the snapshot to the local cache fire-and-forget.
// Caller holds s.mu; the write itself runs outside the lock.
func (s *DefaultPlanSyncService) persistLocked(plan *models.Plan) {
	snapshot := plan.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Cache.Store(ctx, snapshot); err != nil {
			s.Logger.Debug("sync: cache write failed", zap.Error(err))
		}
	}()
}

// RefreshIfVersionChanged gates the expensive full fetch behind the cheap
// version probe. This path is best effort: probe failures are logged only.
func (s *DefaultPlanSyncService) RefreshIfVersionChanged(ctx context.Context, source models.RefreshSource) {
	remote, err := s.API.FetchPlanVersion(ctx)
	if err != nil {
		s.Logger.Debug("sync: version probe failed",
			zap.String("source", string(source)), zap.Error(err))
		return
	}

	s.mu.Lock()
	stale := remote > s.latestVersion
	s.mu.Unlock()
	if !stale {
		return
	}

	if _, err := s.Refresh(ctx, source, true); err != nil {
		s.Logger.Debug("sync: version-gated refresh failed",
			zap.String("source", string(source)), zap.Error(err))
	}
}

// ApplyDelta merges one delta into the held plan. With no plan there is
// nothing to reconcile against and the delta is dropped.
func (s *DefaultPlanSyncService) ApplyDelta(ctx context.Context, delta models.PlanDelta) {
	s.mu.Lock()
	if s.plan == nil {
		s.mu.Unlock()
		return
	}

	next, applied := Reduce(s.plan, delta)
	if applied {
		s.plan = next
		if delta.Version > s.latestVersion {
			s.latestVersion = delta.Version
		}
		s.persistLocked(next)
		s.mu.Unlock()
		s.notify()
		return
	}
	s.mu.Unlock()

	// The fast path is uncertain; fall back to the authoritative fetch
	// rather than risking a divergent local state.
	s.Logger.Info("sync: delta not applicable, falling back to full refresh",
		zap.String("itemType", string(delta.ItemType)),
		zap.String("entityId", delta.EntityID),
		zap.String("action", string(delta.Action)))
	if _, err := s.Refresh(ctx, models.SourceRealtime, true); err != nil {
		s.Logger.Debug("sync: fallback refresh failed", zap.Error(err))
	}
}

func (s *DefaultPlanSyncService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Plan:          s.plan.Clone(),
		Loading:       s.loading,
		Refreshing:    s.refreshing,
		Error:         s.errMsg,
		LatestVersion: s.latestVersion,
		LastUpdate:    s.lastUpdate,
	}
}

func (s *DefaultPlanSyncService) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *DefaultPlanSyncService) notify() {
	snap := s.Snapshot()
	s.mu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// SignOut clears in-memory state and the cached snapshot. In-flight fetch
// results are not aborted; the commit guard discards them.
func (s *DefaultPlanSyncService) SignOut(ctx context.Context) {
	s.mu.Lock()
	s.plan = nil
	s.latestVersion = 0
	s.errMsg = ""
	s.lastUpdate = nil
	s.loading = false
	s.refreshing = false
	s.mu.Unlock()

	if err := s.Cache.Clear(ctx); err != nil {
		s.Logger.Debug("sync: cache clear failed", zap.Error(err))
	}
	if s.OnSignOut != nil {
		s.OnSignOut()
	}
	s.notify()
}
