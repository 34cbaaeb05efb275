package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deskhivelabs/deskhive/internal/config"
	"github.com/deskhivelabs/deskhive/internal/payment/domain"
)

const (
	defaultBaseURL = "https://api.cashfree.com/pg"
	apiVersion     = "2023-08-01"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "cashfree"
}

func (f *Factory) NewAdapter(creds config.GatewayCredentials) (domain.Adapter, error) {
	if strings.TrimSpace(creds.ClientID) == "" || strings.TrimSpace(creds.ClientSecret) == "" {
		return nil, domain.ErrGatewayNotConfigured
	}
	baseURL := creds.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		clientID:     creds.ClientID,
		clientSecret: creds.ClientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type Adapter struct {
	clientID     string
	clientSecret string
	baseURL      string
	client       *http.Client
}

func (a *Adapter) Provider() string { return "cashfree" }

func (a *Adapter) setHeaders(req *http.Request) {
	req.Header.Set("x-client-id", a.clientID)
	req.Header.Set("x-client-secret", a.clientSecret)
	req.Header.Set("x-api-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
}

type orderRequest struct {
	OrderID       string            `json:"order_id"`
	OrderAmount   float64           `json:"order_amount"`
	OrderCurrency string            `json:"order_currency"`
	OrderTags     map[string]string `json:"order_tags,omitempty"`
}

type orderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
}

func (a *Adapter) CreateOrder(ctx context.Context, input domain.CreateOrderInput) (*domain.ProviderOrder, error) {
	body, err := json.Marshal(orderRequest{
		OrderID:       input.ReceiptID,
		OrderAmount:   float64(input.Amount) / 100,
		OrderCurrency: input.Currency,
		OrderTags:     input.Notes,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cashfree create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cashfree create order: status %d", resp.StatusCode)
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("cashfree create order: %w", err)
	}
	if order.OrderID == "" {
		return nil, fmt.Errorf("cashfree create order: empty order id")
	}
	return &domain.ProviderOrder{OrderID: order.OrderID}, nil
}

type paymentEntry struct {
	CFPaymentID   json.Number `json:"cf_payment_id"`
	PaymentStatus string      `json:"payment_status"`
}

// Reconcile ignores any client-supplied payment id and signature. Cashfree
// does not hand the browser a signature to echo back, so the only trustworthy
// source is the provider itself: fetch the payment list for the stored order
// and accept only if at least one entry reports SUCCESS, adopting the
// provider's own transaction id as canonical.
func (a *Adapter) Reconcile(ctx context.Context, input domain.ReconcileInput) (*domain.VerifiedPayment, error) {
	if input.OrderID == "" {
		return nil, domain.ErrVerificationFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/orders/"+input.OrderID+"/payments", nil)
	if err != nil {
		return nil, err
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cashfree fetch payments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cashfree fetch payments: status %d", resp.StatusCode)
	}

	var entries []paymentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("cashfree fetch payments: %w", err)
	}

	for _, entry := range entries {
		if strings.EqualFold(entry.PaymentStatus, "SUCCESS") {
			return &domain.VerifiedPayment{PaymentID: entry.CFPaymentID.String()}, nil
		}
	}
	return nil, domain.ErrVerificationFailed
}
