package razorpay

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

func newAdapter(t *testing.T, creds config.GatewayCredentials) domain.Adapter {
	t.Helper()
	adapter, err := NewFactory().NewAdapter(creds)
	require.NoError(t, err)
	return adapter
}

func TestReconcileValidSignature(t *testing.T) {
	adapter := newAdapter(t, config.GatewayCredentials{KeyID: "key", KeySecret: "s3cret"})

	sig := Signature("order_1", "pay_1", "s3cret")
	got, err := adapter.Reconcile(context.Background(), domain.ReconcileInput{
		OrderID:          "order_1",
		ClaimedPaymentID: "pay_1",
		ClaimedSignature: sig,
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_1", got.PaymentID)
	assert.Equal(t, sig, got.Signature)
}

func TestReconcileAlteredSignature(t *testing.T) {
	adapter := newAdapter(t, config.GatewayCredentials{KeyID: "key", KeySecret: "s3cret"})

	sig := []byte(Signature("order_1", "pay_1", "s3cret"))
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}

	_, err := adapter.Reconcile(context.Background(), domain.ReconcileInput{
		OrderID:          "order_1",
		ClaimedPaymentID: "pay_1",
		ClaimedSignature: string(sig),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
}

func TestReconcileMissingFields(t *testing.T) {
	adapter := newAdapter(t, config.GatewayCredentials{KeyID: "key", KeySecret: "s3cret"})

	_, err := adapter.Reconcile(context.Background(), domain.ReconcileInput{
		OrderID:          "order_1",
		ClaimedSignature: "deadbeef",
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))

	_, err = adapter.Reconcile(context.Background(), domain.ReconcileInput{
		ClaimedPaymentID: "pay_1",
		ClaimedSignature: "deadbeef",
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
}

func TestReconcileWithoutSignatureFetchesProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders/order_1/payments", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entity":"collection","count":2,"items":[
			{"id":"pay_failed","status":"failed"},
			{"id":"pay_ok","status":"captured"}]}`))
	}))
	defer srv.Close()

	adapter := newAdapter(t, config.GatewayCredentials{KeyID: "key", KeySecret: "s3cret", BaseURL: srv.URL})
	got, err := adapter.Reconcile(context.Background(), domain.ReconcileInput{OrderID: "order_1"})
	require.NoError(t, err)
	assert.Equal(t, "pay_ok", got.PaymentID)
	assert.Empty(t, got.Signature)
}

func TestReconcileWithoutSignatureNoCapture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entity":"collection","count":1,"items":[{"id":"pay_1","status":"authorized"}]}`))
	}))
	defer srv.Close()

	adapter := newAdapter(t, config.GatewayCredentials{KeyID: "key", KeySecret: "s3cret", BaseURL: srv.URL})
	_, err := adapter.Reconcile(context.Background(), domain.ReconcileInput{OrderID: "order_1"})
	assert.True(t, errors.Is(err, domain.ErrVerificationFailed))
}

func TestReconcileWithoutSignatureHonorsClaimedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entity":"collection","count":1,"items":[{"id":"pay_other","status":"captured"}]}`))
	}))
	defer srv.Close()

	adapter := newAdapter(t, config.GatewayCredentials{KeyID: "key", KeySecret: "s3cret", BaseURL: srv.URL})
	_, err := adapter.Reconcile(context.Background(), domain.ReconcileInput{
		OrderID:          "order_1",
		ClaimedPaymentID: "pay_expected",
	})
	assert.True(t, errors.Is(err, domain.ErrVerificationFailed))
}

func TestFactoryRejectsBlankCredentials(t *testing.T) {
	_, err := NewFactory().NewAdapter(config.GatewayCredentials{})
	assert.True(t, errors.Is(err, domain.ErrGatewayNotConfigured))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_xyz"}`))
	}))
	defer srv.Close()

	adapter := newAdapter(t, config.GatewayCredentials{KeyID: "key", KeySecret: "s3cret", BaseURL: srv.URL})
	order, err := adapter.CreateOrder(context.Background(), domain.CreateOrderInput{
		Amount:    50000,
		Currency:  "INR",
		ReceiptID: "rcpt_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_xyz", order.OrderID)
}

func TestCreateOrderProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter := newAdapter(t, config.GatewayCredentials{KeyID: "key", KeySecret: "s3cret", BaseURL: srv.URL})
	_, err := adapter.CreateOrder(context.Background(), domain.CreateOrderInput{Amount: 100, Currency: "INR"})
	assert.Error(t, err)
}
