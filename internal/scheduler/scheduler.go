package scheduler

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/deskhivelabs/deskhive/internal/clock"
	subscriptiondomain "github.com/deskhivelabs/deskhive/internal/subscription/domain"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
)

const sweepInterval = 15 * time.Minute

// Scheduler runs periodic maintenance jobs. Jobs are written to be safe to
// run concurrently with another instance; each run re-reads its own cutoff.
type Scheduler struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:    p.DB,
		log:   p.Log.Named("scheduler"),
		clock: p.Clock,
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		if err := s.ExpireSubscriptionsJob(ctx); err != nil {
			s.log.Error("expire subscriptions job failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ExpireSubscriptionsJob moves active grants whose window has closed to
// expired. Expiry is a derived state; the authoritative fact is end_date,
// so running late or twice changes nothing.
func (s *Scheduler) ExpireSubscriptionsJob(ctx context.Context) error {
	now := s.clock.Now(ctx)

	result := s.db.WithContext(ctx).
		Model(&subscriptiondomain.StudentSubscription{}).
		Where("status = ? AND end_date < ?", subscriptiondomain.SubscriptionStatusActive, now).
		Update("status", subscriptiondomain.SubscriptionStatusExpired)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		s.log.Info("subscriptions expired",
			zap.Int64("count", result.RowsAffected),
			zap.Time("cutoff", now))
	}
	return nil
}
