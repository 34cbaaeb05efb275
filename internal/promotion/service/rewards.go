package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogrepo "github.com/deskhivelabs/deskhive/internal/catalog/repository"
	"github.com/deskhivelabs/deskhive/internal/clock"
	paymentdomain "github.com/deskhivelabs/deskhive/internal/payment/domain"
	"github.com/deskhivelabs/deskhive/internal/promotion/domain"
	"github.com/deskhivelabs/deskhive/internal/promotion/repository"
)

const (
	rewardValidityDays = 90
	codeRetries        = 3
)

type Rewards struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    *repository.Repository
	catalog *catalogrepo.Repository
}

type RewardsParams struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    *repository.Repository
	Catalog *catalogrepo.Repository
}

func NewRewards(p RewardsParams) *Rewards {
	return &Rewards{
		db:      p.DB,
		log:     p.Log.Named("promotion.rewards"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		catalog: p.Catalog,
	}
}

func (r *Rewards) ProcessReferralRewards(ctx context.Context, paymentID snowflake.ID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return r.ProcessReferralRewardsTx(ctx, tx, paymentID)
	})
}

// ProcessReferralRewardsTx issues the referrer's one-time reward promotion
// for a completed subscription payment by a referred student, then closes
// the referral. A no-op unless the payment qualifies and a pending referral
// exists; the pending-status guard on the referral update makes a double
// invocation issue at most one promotion.
func (r *Rewards) ProcessReferralRewardsTx(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID) error {
	var payment paymentdomain.Payment
	if err := tx.WithContext(ctx).First(&payment, paymentID).Error; err != nil {
		return fmt.Errorf("load payment %s: %w", paymentID, err)
	}
	if payment.Status != paymentdomain.PaymentStatusCompleted || payment.Type != paymentdomain.TypeSubscription {
		return nil
	}

	referral, err := r.repo.FindPendingReferralByReferee(ctx, tx, payment.LibraryID, payment.StudentID)
	if err != nil {
		return err
	}
	if referral == nil {
		return nil
	}

	library, err := r.catalog.FindLibrary(ctx, tx, payment.LibraryID)
	if err != nil {
		return err
	}
	program := library.ReferralProgram()
	if !program.Enabled || program.RewardValue <= 0 {
		return nil
	}

	referrer, err := r.catalog.FindStudent(ctx, tx, referral.ReferrerID)
	if err != nil {
		return err
	}

	now := r.clock.Now(ctx)
	code, err := r.uniqueRewardCode(ctx, tx, referrer.Name, now)
	if err != nil {
		return err
	}

	rewardType := domain.PromotionType(program.RewardType)
	if rewardType != domain.PromotionTypePercentage {
		rewardType = domain.PromotionTypeFixed
	}

	usageLimit := 1
	endDate := now.AddDate(0, 0, rewardValidityDays)
	promo := &domain.Promotion{
		ID:         r.genID.Generate(),
		LibraryID:  payment.LibraryID,
		Code:       code,
		Type:       rewardType,
		Value:      program.RewardValue,
		UsageLimit: &usageLimit,
		StartDate:  &now,
		EndDate:    &endDate,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.repo.Insert(ctx, tx, promo); err != nil {
		return fmt.Errorf("create reward promotion: %w", err)
	}

	closed, err := r.repo.CompleteReferral(ctx, tx, referral.ID, promo.ID)
	if err != nil {
		return err
	}
	if !closed {
		// Lost the race to a concurrent completion; discard the promotion
		// by rolling back.
		return fmt.Errorf("referral %s already completed", referral.ID)
	}

	r.log.Info("referral reward issued",
		zap.String("referral_id", referral.ID.String()),
		zap.String("promotion_code", code),
		zap.String("referrer_id", referral.ReferrerID.String()))
	return nil
}

// PendingDiscount returns the referee-side discount for a student with an
// open referral, or nil when the program is off or no referral is pending.
func (r *Rewards) PendingDiscount(ctx context.Context, libraryID, studentID snowflake.ID) (*domain.ReferralDiscount, error) {
	referral, err := r.repo.FindPendingReferralByReferee(ctx, nil, libraryID, studentID)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, nil
	}

	library, err := r.catalog.FindLibrary(ctx, nil, libraryID)
	if err != nil {
		return nil, err
	}
	program := library.ReferralProgram()
	if !program.Enabled || program.DiscountValue <= 0 {
		return nil, nil
	}

	typ := domain.PromotionType(program.DiscountType)
	if typ != domain.PromotionTypePercentage {
		typ = domain.PromotionTypeFixed
	}
	return &domain.ReferralDiscount{Type: typ, Value: program.DiscountValue}, nil
}

// uniqueRewardCode builds REF-<prefix>-<4 digits> from the referrer's name,
// retrying on collision, then falls back to a timestamp suffix that cannot
// collide in practice.
func (r *Rewards) uniqueRewardCode(ctx context.Context, tx *gorm.DB, referrerName string, now time.Time) (string, error) {
	prefix := codePrefix(referrerName)

	for i := 0; i < codeRetries; i++ {
		code := fmt.Sprintf("REF-%s-%04d", prefix, rand.IntN(9000)+1000)
		existing, err := r.repo.FindByCode(ctx, tx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return fmt.Sprintf("REF-%s-%d", prefix, now.UnixMilli()), nil
}

func codePrefix(name string) string {
	normalized := slug.Make(name)
	var letters []rune
	for _, c := range normalized {
		if c >= 'a' && c <= 'z' {
			letters = append(letters, c-'a'+'A')
		}
		if len(letters) == 4 {
			break
		}
	}
	if len(letters) == 0 {
		return "R"
	}
	return string(letters)
}
