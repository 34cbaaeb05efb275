package domain

import (
	"context"

	"github.com/deskhivelabs/deskhive/internal/config"
)

// CreateOrderInput asks a provider to open a remote order/session for a
// payment the ledger has already recorded as pending.
type CreateOrderInput struct {
	Amount    int64
	Currency  string
	ReceiptID string
	Notes     map[string]string
}

type ProviderOrder struct {
	OrderID string
}

// ReconcileInput carries what a verifier knows about a claimed completion.
// Signature-style providers check ClaimedPaymentID/ClaimedSignature against
// OrderID; status-fetch providers ignore both claimed fields and ask the
// provider which payments exist for OrderID.
type ReconcileInput struct {
	OrderID          string
	ClaimedPaymentID string
	ClaimedSignature string
}

// VerifiedPayment is the provider-authenticated outcome. PaymentID is
// canonical: for status-fetch providers it is the provider's own transaction
// id, never the client-asserted one. Signature is empty when the provider
// path does not yield one.
type VerifiedPayment struct {
	PaymentID string
	Signature string
}

// Adapter authenticates money movement claimed against one gateway provider.
type Adapter interface {
	Provider() string
	CreateOrder(ctx context.Context, input CreateOrderInput) (*ProviderOrder, error)
	Reconcile(ctx context.Context, input ReconcileInput) (*VerifiedPayment, error)
}

// AdapterFactory builds adapters from per-deployment credentials.
type AdapterFactory interface {
	Provider() string
	NewAdapter(creds config.GatewayCredentials) (Adapter, error)
}
