package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrReferralNotFound  = errors.New("referral not found")

	// Coupon validation rejections, in check order. Messages are surfaced
	// to the payer as-is.
	ErrInvalidCouponCode  = errors.New("Invalid coupon code")
	ErrCouponInactive     = errors.New("This coupon is no longer active")
	ErrCouponNotStarted   = errors.New("This coupon is not valid yet")
	ErrCouponExpired      = errors.New("This coupon has expired")
	ErrCouponBranchScope  = errors.New("This coupon is not valid at this branch")
	ErrCouponPlanScope    = errors.New("This coupon is not valid for this plan")
	ErrCouponUsageLimit   = errors.New("Coupon usage limit reached")
	ErrCouponPerUserLimit = errors.New("You have already used this coupon")
	ErrCouponMinOrder     = errors.New("Order amount is below the coupon minimum")
)

type PromotionType string

const (
	PromotionTypePercentage PromotionType = "percentage"
	PromotionTypeFixed      PromotionType = "fixed"
)

// Promotion is a discount code: an owner-created coupon or a referral reward.
// Usage counts are not stored on the row; they are derived by counting
// completed payments that reference the promotion.
type Promotion struct {
	ID            snowflake.ID  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LibraryID     snowflake.ID  `json:"library_id" gorm:"not null;index"`
	BranchID      *snowflake.ID `json:"branch_id" gorm:"type:bigint"`
	PlanID        *snowflake.ID `json:"plan_id" gorm:"type:bigint"`
	Code          string        `json:"code" gorm:"type:varchar(64);uniqueIndex;not null"`
	Type          PromotionType `json:"type" gorm:"type:varchar(20);not null"`
	Value         int64         `json:"value" gorm:"not null"` // percent for percentage, minor units for fixed
	MaxDiscount   *int64        `json:"max_discount"`
	MinOrderValue *int64        `json:"min_order_value"`
	UsageLimit    *int          `json:"usage_limit"`
	PerUserLimit  *int          `json:"per_user_limit"`
	StartDate     *time.Time    `json:"start_date"`
	EndDate       *time.Time    `json:"end_date"`
	IsActive      bool          `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"not null"`
}

func (Promotion) TableName() string { return "promotions" }

type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
)

// Referral links a referrer student to the student they brought in. It is
// closed exactly once, when the referee's first subscription payment
// completes and the referrer's reward promotion is issued.
type Referral struct {
	ID         snowflake.ID   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LibraryID  snowflake.ID   `json:"library_id" gorm:"not null;index"`
	ReferrerID snowflake.ID   `json:"referrer_id" gorm:"not null;index"`
	RefereeID  snowflake.ID   `json:"referee_id" gorm:"not null;index"`
	Status     ReferralStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	CouponID   *snowflake.ID  `json:"coupon_id" gorm:"type:bigint"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"not null"`
}

func (Referral) TableName() string { return "referrals" }
