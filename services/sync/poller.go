package sync

import (
	"context"
	"time"

	"carelink/models"
	"carelink/services/session"
	"carelink/utils"

	"go.uber.org/zap"
)

// Poller is the low-frequency fallback for when the push channel is down.
// Each tick runs the cheap version probe; a failed probe never stops the
// loop. The loop exits only when ctx is canceled (sign-out tears it down).
type Poller struct {
	Sync     PlanSyncService
	Session  session.Checker
	Clock    utils.Clock
	Interval time.Duration
	// Connected reports the push channel status; while it is up the
	// realtime path carries updates and polling stays dormant.
	Connected func() bool
	Logger    *zap.Logger
}

func (p *Poller) Run(ctx context.Context) {
	p.Logger.Info("poller: started", zap.Duration("interval", p.Interval))
	for {
		if err := p.Clock.Sleep(ctx, p.Interval); err != nil {
			p.Logger.Info("poller: stopped")
			return
		}
		if !p.Session.SignedIn(ctx) {
			continue
		}
		if p.Connected != nil && p.Connected() {
			continue
		}
		p.Sync.RefreshIfVersionChanged(ctx, models.SourcePoll)
	}
}
