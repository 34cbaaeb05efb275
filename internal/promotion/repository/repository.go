package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	paymentdomain "github.com/deskhivelabs/deskhive/internal/payment/domain"
	"github.com/deskhivelabs/deskhive/internal/promotion/domain"
)

type Repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) handle(db *gorm.DB) *gorm.DB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Repository) Insert(ctx context.Context, db *gorm.DB, promo *domain.Promotion) error {
	return r.handle(db).WithContext(ctx).Create(promo).Error
}

func (r *Repository) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Promotion, error) {
	var promo domain.Promotion
	if err := r.handle(db).WithContext(ctx).Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

// CountRedemptions derives the number of times a promotion has been used by
// counting completed payments referencing it. There is no reserved counter
// column, so this is recomputed on every validation.
func (r *Repository) CountRedemptions(ctx context.Context, db *gorm.DB, promotionID snowflake.ID) (int64, error) {
	var n int64
	err := r.handle(db).WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("promotion_id = ? AND status = ?", promotionID, paymentdomain.PaymentStatusCompleted).
		Count(&n).Error
	return n, err
}

func (r *Repository) CountRedemptionsByStudent(ctx context.Context, db *gorm.DB, promotionID, studentID snowflake.ID) (int64, error) {
	var n int64
	err := r.handle(db).WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("promotion_id = ? AND student_id = ? AND status = ?", promotionID, studentID, paymentdomain.PaymentStatusCompleted).
		Count(&n).Error
	return n, err
}

func (r *Repository) FindPendingReferralByReferee(ctx context.Context, db *gorm.DB, libraryID, refereeID snowflake.ID) (*domain.Referral, error) {
	var referral domain.Referral
	err := r.handle(db).WithContext(ctx).
		Where("library_id = ? AND referee_id = ? AND status = ?", libraryID, refereeID, domain.ReferralStatusPending).
		First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// CompleteReferral closes a referral exactly once: the status guard in the
// WHERE clause makes a concurrent second completion a no-op.
func (r *Repository) CompleteReferral(ctx context.Context, db *gorm.DB, referralID, couponID snowflake.ID) (bool, error) {
	res := r.handle(db).WithContext(ctx).
		Model(&domain.Referral{}).
		Where("id = ? AND status = ?", referralID, domain.ReferralStatusPending).
		Updates(map[string]any{
			"status":    domain.ReferralStatusCompleted,
			"coupon_id": couponID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
