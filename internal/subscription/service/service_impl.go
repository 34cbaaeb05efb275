package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogrepo "github.com/deskhivelabs/deskhive/internal/catalog/repository"
	"github.com/deskhivelabs/deskhive/internal/clock"
	paymentdomain "github.com/deskhivelabs/deskhive/internal/payment/domain"
	"github.com/deskhivelabs/deskhive/internal/subscription/domain"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo    domain.Repository
	catalog *catalogrepo.Repository
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Catalog *catalogrepo.Repository
}

func NewService(p ServiceParam) domain.Activator {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("subscription.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		catalog: p.Catalog,
	}
}

// Activate runs the activation algorithm in its own transaction. Entry
// points that already hold a transaction call ActivateTx directly so the
// subscription write and the payment backfill commit together.
func (s *Service) Activate(ctx context.Context, paymentID snowflake.ID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.ActivateTx(ctx, tx, paymentID)
	})
}

// ActivateTx resolves the subscription a completed payment pays for and
// makes it active. Resolution order, first match wins:
//
//  1. Payment.SubscriptionID already links a subscription: set it active.
//     Dates were fixed when the subscription was created.
//  2. Fall back through the plan on Payment.RelatedID: compute dates from
//     the plan duration, resolve a branch, convert that student's pending
//     subscription if one exists, otherwise create a fresh active grant.
//     Either way the payment is backfilled with the subscription id, which
//     makes a second run take path 1 and prevents duplicate grants.
//
// Invoked from both the gateway verifier and the manual verifier, so the
// completed-subscription guard is re-checked here.
func (s *Service) ActivateTx(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID) error {
	var payment paymentdomain.Payment
	if err := tx.WithContext(ctx).First(&payment, paymentID).Error; err != nil {
		return fmt.Errorf("load payment %s: %w", paymentID, err)
	}

	if payment.Status != paymentdomain.PaymentStatusCompleted || payment.Type != paymentdomain.TypeSubscription {
		return nil
	}

	// Path 1: direct link.
	if payment.SubscriptionID != nil {
		if err := s.repo.SetStatus(ctx, tx, *payment.SubscriptionID, domain.SubscriptionStatusActive); err != nil {
			return fmt.Errorf("activate linked subscription: %w", err)
		}
		return nil
	}

	// Path 2: resolve through the plan.
	plan, err := s.catalog.FindPlan(ctx, tx, payment.RelatedID)
	if err != nil {
		return fmt.Errorf("load plan for payment %s: %w", payment.ID, err)
	}

	branchID, ok, err := s.resolveBranch(ctx, tx, plan.BranchID, payment.StudentID)
	if err != nil {
		return err
	}
	if !ok {
		// Known gap: nothing to anchor the grant to. The payment stays
		// completed and unlinked rather than failing the verifier.
		s.log.Warn("subscription activation skipped, no branch resolved",
			zap.String("payment_id", payment.ID.String()),
			zap.String("student_id", payment.StudentID.String()))
		return nil
	}

	now := s.clock.Now(ctx)
	endDate := plan.PeriodEnd(now)

	pending, err := s.repo.FindPending(ctx, tx, payment.StudentID, branchID)
	if err != nil {
		return fmt.Errorf("find pending subscription: %w", err)
	}

	var subID snowflake.ID
	if pending != nil {
		// Convert the placeholder created at manual-payment time into the
		// real grant.
		pending.PlanID = plan.ID
		pending.StartDate = now
		pending.EndDate = endDate
		pending.Status = domain.SubscriptionStatusActive
		pending.HasLocker = plan.HasLocker
		if err := s.repo.Update(ctx, tx, pending); err != nil {
			return fmt.Errorf("convert pending subscription: %w", err)
		}
		subID = pending.ID
	} else {
		sub := &domain.StudentSubscription{
			ID:        s.genID.Generate(),
			LibraryID: payment.LibraryID,
			StudentID: payment.StudentID,
			BranchID:  branchID,
			PlanID:    plan.ID,
			StartDate: now,
			EndDate:   endDate,
			Status:    domain.SubscriptionStatusActive,
			Amount:    payment.Amount,
			HasLocker: plan.HasLocker,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, tx, sub); err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		subID = sub.ID
	}

	if err := tx.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("id = ?", payment.ID).
		Update("subscription_id", subID).Error; err != nil {
		return fmt.Errorf("backfill payment subscription link: %w", err)
	}

	s.log.Info("subscription activated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("subscription_id", subID.String()),
		zap.Bool("converted_pending", pending != nil))
	return nil
}

// resolveBranch picks the branch for a fallback activation: the plan's own
// branch when it has one, otherwise the branch of the student's most recent
// subscription.
func (s *Service) resolveBranch(ctx context.Context, tx *gorm.DB, planBranch *snowflake.ID, studentID snowflake.ID) (snowflake.ID, bool, error) {
	if planBranch != nil && *planBranch != 0 {
		return *planBranch, true, nil
	}
	latest, err := s.repo.FindLatestByStudent(ctx, tx, studentID)
	if err != nil {
		return 0, false, fmt.Errorf("find latest subscription: %w", err)
	}
	if latest == nil {
		return 0, false, nil
	}
	return latest.BranchID, true, nil
}
