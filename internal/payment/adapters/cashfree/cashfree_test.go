package cashfree

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhivelabs/deskhive/internal/config"
	"github.com/deskhivelabs/deskhive/internal/payment/domain"
)

func newAdapter(t *testing.T, baseURL string) domain.Adapter {
	t.Helper()
	adapter, err := NewFactory().NewAdapter(config.GatewayCredentials{
		ClientID:     "cf_client",
		ClientSecret: "cf_secret",
		BaseURL:      baseURL,
	})
	require.NoError(t, err)
	return adapter
}

func TestReconcileAdoptsProviderPaymentID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/order_9/payments", r.URL.Path)
		assert.Equal(t, "cf_client", r.Header.Get("x-client-id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"cf_payment_id": 111, "payment_status": "FAILED"},
			{"cf_payment_id": 222, "payment_status": "SUCCESS"}
		]`))
	}))
	defer srv.Close()

	adapter := newAdapter(t, srv.URL)

	// Client-supplied ids are sentinel junk and must be ignored.
	got, err := adapter.Reconcile(context.Background(), domain.ReconcileInput{
		OrderID:          "order_9",
		ClaimedPaymentID: "forged",
		ClaimedSignature: "forged",
	})
	require.NoError(t, err)
	assert.Equal(t, "222", got.PaymentID)
	assert.Empty(t, got.Signature)
}

func TestReconcileNoSuccessfulPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"cf_payment_id": 111, "payment_status": "PENDING"}]`))
	}))
	defer srv.Close()

	adapter := newAdapter(t, srv.URL)
	_, err := adapter.Reconcile(context.Background(), domain.ReconcileInput{OrderID: "order_9"})
	assert.True(t, errors.Is(err, domain.ErrVerificationFailed))
}

func TestReconcileProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	adapter := newAdapter(t, srv.URL)
	_, err := adapter.Reconcile(context.Background(), domain.ReconcileInput{OrderID: "order_9"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrVerificationFailed))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		_, _ = w.Write([]byte(`{"order_id":"order_42","payment_session_id":"sess_1"}`))
	}))
	defer srv.Close()

	adapter := newAdapter(t, srv.URL)
	order, err := adapter.CreateOrder(context.Background(), domain.CreateOrderInput{
		Amount:    50000,
		Currency:  "INR",
		ReceiptID: "order_42",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_42", order.OrderID)
}

func TestFactoryRejectsBlankCredentials(t *testing.T) {
	_, err := NewFactory().NewAdapter(config.GatewayCredentials{})
	assert.True(t, errors.Is(err, domain.ErrGatewayNotConfigured))
}
