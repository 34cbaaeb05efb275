package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type PaymentStatus string

const (
	// Gateway payments start pending and wait for verification.
	PaymentStatusPending PaymentStatus = "pending"
	// Manual payments start pending_verification and wait for a staff or
	// owner decision.
	PaymentStatusPendingVerification PaymentStatus = "pending_verification"
	PaymentStatusCompleted           PaymentStatus = "completed"
	PaymentStatusFailed              PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodRazorpay  PaymentMethod = "razorpay"
	MethodCashfree  PaymentMethod = "cashfree"
	MethodUPIApp    PaymentMethod = "upi_app"
	MethodQRCode    PaymentMethod = "qr_code"
	MethodFrontDesk PaymentMethod = "front_desk"
)

// IsManual reports whether the method settles outside any gateway and
// therefore requires front-desk verification with proof.
func (m PaymentMethod) IsManual() bool {
	switch m {
	case MethodUPIApp, MethodQRCode, MethodFrontDesk:
		return true
	}
	return false
}

type PaymentType string

const (
	TypeSubscription PaymentType = "subscription"
	TypeFee          PaymentType = "fee"
)

// Payment is one attempted or completed monetary transaction, the record of
// truth for money movement. Rows are created pending and moved to a terminal
// state exactly once; they are never deleted.
type Payment struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LibraryID snowflake.ID `json:"library_id" gorm:"not null;index"`
	BranchID  snowflake.ID `json:"branch_id" gorm:"not null;index"`
	StudentID snowflake.ID `json:"student_id" gorm:"not null;index"`

	Amount         int64         `json:"amount" gorm:"not null"` // minor units, post-discount
	DiscountAmount int64         `json:"discount_amount" gorm:"not null;default:0"`
	Method         PaymentMethod `json:"method" gorm:"type:varchar(20);not null"`
	Status         PaymentStatus `json:"status" gorm:"type:varchar(30);not null;index"`
	Type           PaymentType   `json:"type" gorm:"type:varchar(20);not null"`
	Description    string        `json:"description" gorm:"type:text"`

	// RelatedID references a Plan (type subscription) or a Fee (type fee).
	RelatedID      snowflake.ID  `json:"related_id" gorm:"not null"`
	SubscriptionID *snowflake.ID `json:"subscription_id" gorm:"type:bigint;index"`
	PromotionID    *snowflake.ID `json:"promotion_id" gorm:"type:bigint;index"`

	// Manual-payment evidence.
	TransactionRef string `json:"transaction_ref" gorm:"type:varchar(255)"`
	ProofURL       string `json:"proof_url" gorm:"type:text"`

	// Gateway payments only.
	GatewayProvider  string `json:"gateway_provider" gorm:"type:varchar(20)"`
	GatewayOrderID   string `json:"gateway_order_id" gorm:"type:varchar(255);index"`
	GatewayPaymentID string `json:"gateway_payment_id" gorm:"type:varchar(255)"`
	GatewaySignature string `json:"gateway_signature" gorm:"type:varchar(255)"`

	VerifiedBy   *snowflake.ID `json:"verified_by" gorm:"type:bigint"`
	VerifierRole string        `json:"verifier_role" gorm:"type:varchar(20)"`
	VerifiedAt   *time.Time    `json:"verified_at"`
	CollectedBy  *snowflake.ID `json:"collected_by" gorm:"type:bigint"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// HasProof reports whether a manual payment carries the evidence required
// before it may be approved.
func (p Payment) HasProof() bool {
	return p.TransactionRef != "" || p.ProofURL != ""
}

// SignatureVerifiedViaAPI marks payments whose completion was confirmed by
// an authoritative status fetch rather than a client-supplied signature.
const SignatureVerifiedViaAPI = "verified_via_api"
