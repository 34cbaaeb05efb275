package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ValidateInput struct {
	Code      string
	Amount    int64
	StudentID snowflake.ID
	BranchID  *snowflake.ID
	PlanID    *snowflake.ID
}

type ValidateResult struct {
	Discount    int64
	FinalAmount int64
	Promotion   *Promotion
}

// Validator checks a coupon's eligibility and prices the discount. The
// arithmetic is shared with ComputeAmount.
type Validator interface {
	Validate(ctx context.Context, input ValidateInput) (*ValidateResult, error)
}

// RewardIssuer handles the referrer side of the referral program: issuing a
// one-time promotion when a referred student's first subscription payment
// completes. Best-effort from the caller's point of view.
type RewardIssuer interface {
	ProcessReferralRewards(ctx context.Context, paymentID snowflake.ID) error
	ProcessReferralRewardsTx(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID) error
}

// ReferralDiscounts resolves the referee-side discount applied at payment
// initiation when the student was referred and has not redeemed it yet.
type ReferralDiscounts interface {
	PendingDiscount(ctx context.Context, libraryID, studentID snowflake.ID) (*ReferralDiscount, error)
}
