package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type InitiateInput struct {
	// LibraryID is the caller's tenant. When set, a purchase that resolves
	// to a different library is refused.
	LibraryID snowflake.ID
	StudentID snowflake.ID
	BranchID  snowflake.ID
	Type      PaymentType
	RelatedID snowflake.ID
	Method    PaymentMethod

	CouponCode string

	// Manual-payment evidence supplied up front.
	TransactionRef string
	ProofURL       string
	CollectedBy    *snowflake.ID
}

// InitiateResult is what the client needs to continue: the recorded payment
// and, for gateway methods, the provider order the client SDK opens.
type InitiateResult struct {
	Payment        *Payment
	GatewayOrderID string
	Provider       string
}

// VerifyGatewayInput carries the client-asserted completion claim.
type VerifyGatewayInput struct {
	GatewayPaymentID string
	GatewaySignature string
}

type ManualAction string

const (
	ManualActionApprove ManualAction = "approve"
	ManualActionReject  ManualAction = "reject"
)

type VerifyManualInput struct {
	Action       ManualAction
	VerifierID   snowflake.ID
	VerifierRole string
	CollectedBy  *snowflake.ID

	// Evidence may be attached at verification time when it was not
	// supplied at initiation.
	TransactionRef string
	ProofURL       string
}

type ListFilter struct {
	BranchID  snowflake.ID
	StudentID snowflake.ID
	Status    PaymentStatus
	Limit     int
}

// Service is the payment lifecycle: record, verify, settle.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	VerifyGateway(ctx context.Context, libraryID, paymentID snowflake.ID, input VerifyGatewayInput) (*Payment, error)
	VerifyManual(ctx context.Context, libraryID, paymentID snowflake.ID, input VerifyManualInput) (*Payment, error)
	Get(ctx context.Context, libraryID, paymentID snowflake.ID) (*Payment, error)
	List(ctx context.Context, libraryID snowflake.ID, filter ListFilter) ([]Payment, error)
}
