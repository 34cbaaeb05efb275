package service

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/deskhivelabs/deskhive/internal/clock"
	"github.com/deskhivelabs/deskhive/internal/metrics"
	"github.com/deskhivelabs/deskhive/internal/promotion/domain"
	"github.com/deskhivelabs/deskhive/internal/promotion/repository"
)

type Validator struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    *repository.Repository
	metrics *metrics.Metrics
}

type ValidatorParams struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    *repository.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

func NewValidator(p ValidatorParams) domain.Validator {
	return &Validator{
		db:      p.DB,
		log:     p.Log.Named("promotion.validator"),
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Validate runs the eligibility checks in order, short-circuiting on the
// first failure. Usage limits are count-based over completed payments with
// no lock; two concurrent redemptions at the limit boundary can both pass.
func (v *Validator) Validate(ctx context.Context, input domain.ValidateInput) (*domain.ValidateResult, error) {
	code := strings.TrimSpace(input.Code)

	promo, err := v.repo.FindByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, v.reject("not_found", domain.ErrInvalidCouponCode)
	}

	if !promo.IsActive {
		return nil, v.reject("inactive", domain.ErrCouponInactive)
	}

	now := v.clock.Now(ctx)
	if promo.StartDate != nil && now.Before(*promo.StartDate) {
		return nil, v.reject("not_started", domain.ErrCouponNotStarted)
	}
	if promo.EndDate != nil && now.After(*promo.EndDate) {
		return nil, v.reject("expired", domain.ErrCouponExpired)
	}

	if promo.BranchID != nil && input.BranchID != nil && *promo.BranchID != *input.BranchID {
		return nil, v.reject("branch_scope", domain.ErrCouponBranchScope)
	}
	if promo.PlanID != nil && input.PlanID != nil && *promo.PlanID != *input.PlanID {
		return nil, v.reject("plan_scope", domain.ErrCouponPlanScope)
	}

	if promo.UsageLimit != nil {
		used, err := v.repo.CountRedemptions(ctx, nil, promo.ID)
		if err != nil {
			return nil, err
		}
		if used >= int64(*promo.UsageLimit) {
			return nil, v.reject("usage_limit", domain.ErrCouponUsageLimit)
		}
	}

	if promo.PerUserLimit != nil && input.StudentID != 0 {
		used, err := v.repo.CountRedemptionsByStudent(ctx, nil, promo.ID, input.StudentID)
		if err != nil {
			return nil, err
		}
		if used >= int64(*promo.PerUserLimit) {
			return nil, v.reject("per_user_limit", domain.ErrCouponPerUserLimit)
		}
	}

	if promo.MinOrderValue != nil && input.Amount < *promo.MinOrderValue {
		return nil, v.reject("min_order", domain.ErrCouponMinOrder)
	}

	discount := promo.DiscountFor(input.Amount)
	final := input.Amount - discount
	if final < 0 {
		final = 0
	}

	return &domain.ValidateResult{
		Discount:    discount,
		FinalAmount: final,
		Promotion:   promo,
	}, nil
}

func (v *Validator) reject(reason string, err error) error {
	if v.metrics != nil {
		v.metrics.CouponRejections.WithLabelValues(reason).Inc()
	}
	return err
}
