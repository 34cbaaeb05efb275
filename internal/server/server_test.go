package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskhivelabs/deskhive/internal/config"
	paymentdomain "github.com/deskhivelabs/deskhive/internal/payment/domain"
	promotiondomain "github.com/deskhivelabs/deskhive/internal/promotion/domain"
)

type stubPayments struct {
	paymentdomain.Service

	initiate    func(paymentdomain.InitiateInput) (*paymentdomain.InitiateResult, error)
	verify      func(snowflake.ID, paymentdomain.VerifyGatewayInput) (*paymentdomain.Payment, error)
	lastLibrary snowflake.ID
}

func (s *stubPayments) Initiate(ctx context.Context, input paymentdomain.InitiateInput) (*paymentdomain.InitiateResult, error) {
	s.lastLibrary = input.LibraryID
	return s.initiate(input)
}

func (s *stubPayments) VerifyGateway(ctx context.Context, libraryID, paymentID snowflake.ID, input paymentdomain.VerifyGatewayInput) (*paymentdomain.Payment, error) {
	s.lastLibrary = libraryID
	return s.verify(paymentID, input)
}

type stubCoupons struct {
	result    *promotiondomain.ValidateResult
	err       error
	lastInput promotiondomain.ValidateInput
}

func (s *stubCoupons) Validate(ctx context.Context, input promotiondomain.ValidateInput) (*promotiondomain.ValidateResult, error) {
	s.lastInput = input
	return s.result, s.err
}

func newTestServer(t *testing.T, payments *stubPayments, coupons *stubCoupons) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	s := NewServer(Params{
		Engine:   engine,
		Log:      zap.NewNop(),
		Cfg:      config.Config{},
		Payments: payments,
		Coupons:  coupons,
	})
	s.RegisterRoutes()
	return engine
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("X-Library-ID", "1001")
	req.Header.Set("X-Principal-ID", "2002")
	req.Header.Set("X-Principal-Role", "owner")
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestIdentityHeadersRequired(t *testing.T) {
	engine := newTestServer(t, &stubPayments{}, &stubCoupons{})

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
}

func TestInitiatePaymentEnvelope(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	payments := &stubPayments{
		initiate: func(input paymentdomain.InitiateInput) (*paymentdomain.InitiateResult, error) {
			p := &paymentdomain.Payment{
				ID: 42, LibraryID: input.LibraryID, StudentID: input.StudentID,
				Amount: 50000, Method: input.Method,
				Status: paymentdomain.PaymentStatusPending,
				Type:   input.Type, CreatedAt: now, UpdatedAt: now,
			}
			return &paymentdomain.InitiateResult{Payment: p, GatewayOrderID: "order_1", Provider: "razorpay"}, nil
		},
	}
	engine := newTestServer(t, payments, &stubCoupons{})

	req := authed(httptest.NewRequest(http.MethodPost, "/api/payments/initiate", strings.NewReader(
		`{"student_id":"3003","type":"subscription","related_id":"4004","method":"razorpay"}`)))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "order_1", body["order_id"])
	require.Equal(t, "razorpay", body["provider"])
	require.Equal(t, snowflake.ID(1001), payments.lastLibrary, "tenant comes from the header")
}

func TestGatewayNotConfiguredMapping(t *testing.T) {
	payments := &stubPayments{
		initiate: func(paymentdomain.InitiateInput) (*paymentdomain.InitiateResult, error) {
			return nil, paymentdomain.ErrGatewayNotConfigured
		},
	}
	engine := newTestServer(t, payments, &stubCoupons{})

	req := authed(httptest.NewRequest(http.MethodPost, "/api/payments/initiate", strings.NewReader(
		`{"student_id":"3003","type":"subscription","related_id":"4004","method":"razorpay"}`)))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "GATEWAY_NOT_CONFIGURED", body["code"])
	require.Equal(t, "gateway not connected yet", body["error"])
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	payments := &stubPayments{
		verify: func(snowflake.ID, paymentdomain.VerifyGatewayInput) (*paymentdomain.Payment, error) {
			return nil, paymentdomain.ErrInvalidSignature
		},
	}
	engine := newTestServer(t, payments, &stubCoupons{})

	req := authed(httptest.NewRequest(http.MethodPost, "/api/payments/42/verify", strings.NewReader(
		`{"gateway_payment_id":"pay_1","gateway_signature":"bad"}`)))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "VERIFICATION_FAILED", body["code"])
}

func TestValidateCouponRejection(t *testing.T) {
	engine := newTestServer(t, &stubPayments{}, &stubCoupons{err: promotiondomain.ErrCouponExpired})

	req := authed(httptest.NewRequest(http.MethodPost, "/api/coupons/validate", strings.NewReader(
		`{"code":"OLD","amount":50000,"student_id":"3003"}`)))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INVALID_COUPON", body["code"])
	require.Equal(t, "This coupon has expired", body["error"])
}

func TestValidateCouponSuccess(t *testing.T) {
	engine := newTestServer(t, &stubPayments{}, &stubCoupons{result: &promotiondomain.ValidateResult{
		Discount: 5000, FinalAmount: 45000,
		Promotion: &promotiondomain.Promotion{Code: "WELCOME10"},
	}})

	req := authed(httptest.NewRequest(http.MethodPost, "/api/coupons/validate", strings.NewReader(
		`{"code":"WELCOME10","amount":50000,"student_id":"3003"}`)))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(5000), body["discount"])
	require.Equal(t, float64(45000), body["final_amount"])
}

func TestValidateCouponDefaultsToPrincipal(t *testing.T) {
	coupons := &stubCoupons{result: &promotiondomain.ValidateResult{
		Discount: 5000, FinalAmount: 45000,
		Promotion: &promotiondomain.Promotion{Code: "WELCOME10"},
	}}
	engine := newTestServer(t, &stubPayments{}, coupons)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/coupons/validate", strings.NewReader(
		`{"code":"WELCOME10","amount":50000}`)))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, snowflake.ID(2002), coupons.lastInput.StudentID)
}

func TestHealthz(t *testing.T) {
	engine := newTestServer(t, &stubPayments{}, &stubCoupons{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
