package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deskhivelabs/deskhive/internal/config"
	"github.com/deskhivelabs/deskhive/internal/payment/domain"
)

const defaultBaseURL = "https://api.razorpay.com"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "razorpay"
}

func (f *Factory) NewAdapter(creds config.GatewayCredentials) (domain.Adapter, error) {
	if strings.TrimSpace(creds.KeyID) == "" || strings.TrimSpace(creds.KeySecret) == "" {
		return nil, domain.ErrGatewayNotConfigured
	}
	baseURL := creds.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		keyID:     creds.KeyID,
		keySecret: creds.KeySecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type Adapter struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func (a *Adapter) Provider() string { return "razorpay" }

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID string `json:"id"`
}

func (a *Adapter) CreateOrder(ctx context.Context, input domain.CreateOrderInput) (*domain.ProviderOrder, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   input.Amount,
		Currency: input.Currency,
		Receipt:  input.ReceiptID,
		Notes:    input.Notes,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(a.keyID, a.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("razorpay create order: status %d", resp.StatusCode)
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay create order: empty order id")
	}
	return &domain.ProviderOrder{OrderID: order.ID}, nil
}

// Reconcile authenticates a payment against the order. When the caller
// presents the checkout signature, recompute HMAC-SHA256(orderID + "|" +
// paymentID) with the key secret and compare; any mismatch fails
// verification outright. Webhook deliveries carry no checkout signature,
// so the signatureless case asks the provider directly for the order's
// payments and accepts only a captured entry, adopting the provider's
// payment id.
func (a *Adapter) Reconcile(ctx context.Context, input domain.ReconcileInput) (*domain.VerifiedPayment, error) {
	if input.OrderID == "" {
		return nil, domain.ErrInvalidSignature
	}
	if input.ClaimedSignature == "" {
		return a.reconcileViaAPI(ctx, input)
	}
	if input.ClaimedPaymentID == "" {
		return nil, domain.ErrInvalidSignature
	}

	expected := Signature(input.OrderID, input.ClaimedPaymentID, a.keySecret)
	if !hmac.Equal([]byte(expected), []byte(input.ClaimedSignature)) {
		return nil, domain.ErrInvalidSignature
	}

	return &domain.VerifiedPayment{
		PaymentID: input.ClaimedPaymentID,
		Signature: input.ClaimedSignature,
	}, nil
}

func (a *Adapter) reconcileViaAPI(ctx context.Context, input domain.ReconcileInput) (*domain.VerifiedPayment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/orders/"+input.OrderID+"/payments", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(a.keyID, a.keySecret)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch payments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("razorpay fetch payments: status %d", resp.StatusCode)
	}

	var list struct {
		Items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("razorpay fetch payments: %w", err)
	}

	for _, item := range list.Items {
		if item.Status != "captured" {
			continue
		}
		if input.ClaimedPaymentID != "" && item.ID != input.ClaimedPaymentID {
			continue
		}
		return &domain.VerifiedPayment{PaymentID: item.ID}, nil
	}
	return nil, domain.ErrVerificationFailed
}

// Signature is the hex-encoded HMAC-SHA256 of "orderID|paymentID".
func Signature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
