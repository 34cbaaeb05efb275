package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/deskhivelabs/deskhive/internal/metrics"
	"github.com/deskhivelabs/deskhive/internal/payment/adapters"
	"github.com/deskhivelabs/deskhive/internal/payment/domain"
	paymentrepo "github.com/deskhivelabs/deskhive/internal/payment/repository"
	"github.com/deskhivelabs/deskhive/internal/redis"
)

var (
	ErrInvalidProvider = errors.New("invalid provider")
	ErrInvalidPayload  = errors.New("invalid payload")
	// ErrEventIgnored marks event types this service does not act on.
	// Callers acknowledge these so the provider stops retrying.
	ErrEventIgnored = errors.New("event ignored")
)

// Service ingests gateway webhooks as a second settlement path alongside
// client-driven verification. The payload is only used to locate the
// payment; settlement still goes through the provider reconcile, so a
// forged webhook can at worst trigger a legitimate verification early.
type Service struct {
	log      *zap.Logger
	payments domain.Service
	repo     *paymentrepo.Repository
	adapters *adapters.Registry
	dedup    *redis.Deduper
	metrics  *metrics.Metrics
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Payments domain.Service
	Repo     *paymentrepo.Repository
	Adapters *adapters.Registry
	Dedup    *redis.Deduper
	Metrics  *metrics.Metrics `optional:"true"`
}

func NewService(p Params) *Service {
	return &Service{
		log:      p.Log.Named("payment.webhook"),
		payments: p.Payments,
		repo:     p.Repo,
		adapters: p.Adapters,
		dedup:    p.Dedup,
		metrics:  p.Metrics,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return ErrInvalidProvider
	}
	if !s.adapters.ProviderExists(provider) {
		s.count(provider, "unknown_provider")
		return domain.ErrProviderNotFound
	}
	if !json.Valid(payload) {
		s.count(provider, "invalid_payload")
		return ErrInvalidPayload
	}

	first, err := s.dedup.FirstDelivery(ctx, provider, deliveryID(provider, payload, headers))
	if err != nil {
		// Dedup is an optimization; a redis outage must not drop webhooks.
		s.log.Warn("webhook dedup unavailable", zap.String("provider", provider), zap.Error(err))
		first = true
	}
	if !first {
		s.count(provider, "duplicate")
		s.log.Debug("duplicate webhook delivery skipped", zap.String("provider", provider))
		return nil
	}

	event, err := parseEvent(provider, payload)
	if err != nil {
		if errors.Is(err, ErrEventIgnored) {
			s.count(provider, "ignored")
			return nil
		}
		s.count(provider, "parse_error")
		return err
	}

	payment, err := s.repo.FindByGatewayOrderID(ctx, nil, event.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			s.count(provider, "unmatched")
			s.log.Warn("webhook for unknown order",
				zap.String("provider", provider),
				zap.String("order_id", event.OrderID))
			return nil
		}
		return err
	}

	_, err = s.payments.VerifyGateway(ctx, payment.LibraryID, payment.ID, domain.VerifyGatewayInput{
		GatewayPaymentID: event.PaymentID,
		GatewaySignature: event.Signature,
	})
	if err != nil {
		s.count(provider, "verify_failed")
		s.log.Warn("webhook-triggered verification failed",
			zap.String("provider", provider),
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
		return err
	}

	s.count(provider, "settled")
	s.log.Info("webhook settled payment",
		zap.String("provider", provider),
		zap.String("payment_id", payment.ID.String()))
	return nil
}

func (s *Service) count(provider, outcome string) {
	if s.metrics != nil {
		s.metrics.WebhookDeliveries.WithLabelValues(provider, outcome).Inc()
	}
}

// gatewayEvent is the provider-independent core of a success notification.
type gatewayEvent struct {
	OrderID   string
	PaymentID string
	Signature string
}

func deliveryID(provider string, payload []byte, headers http.Header) string {
	for _, h := range []string{"X-Razorpay-Event-Id", "X-Webhook-Id", "X-Idempotency-Key"} {
		if id := headers.Get(h); id != "" {
			return id
		}
	}
	sum := sha256.Sum256(payload)
	return provider + ":" + hex.EncodeToString(sum[:])
}

func parseEvent(provider string, payload []byte) (gatewayEvent, error) {
	switch provider {
	case "razorpay":
		return parseRazorpayEvent(payload)
	case "cashfree":
		return parseCashfreeEvent(payload)
	}
	return gatewayEvent{}, ErrEventIgnored
}

func parseRazorpayEvent(payload []byte) (gatewayEvent, error) {
	var body struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID      string `json:"id"`
					OrderID string `json:"order_id"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return gatewayEvent{}, ErrInvalidPayload
	}
	if body.Event != "payment.captured" {
		return gatewayEvent{}, ErrEventIgnored
	}
	entity := body.Payload.Payment.Entity
	if entity.OrderID == "" || entity.ID == "" {
		return gatewayEvent{}, ErrInvalidPayload
	}
	return gatewayEvent{OrderID: entity.OrderID, PaymentID: entity.ID}, nil
}

func parseCashfreeEvent(payload []byte) (gatewayEvent, error) {
	var body struct {
		Type string `json:"type"`
		Data struct {
			Order struct {
				OrderID string `json:"order_id"`
			} `json:"order"`
			Payment struct {
				CfPaymentID json.Number `json:"cf_payment_id"`
			} `json:"payment"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return gatewayEvent{}, ErrInvalidPayload
	}
	if body.Type != "PAYMENT_SUCCESS_WEBHOOK" {
		return gatewayEvent{}, ErrEventIgnored
	}
	if body.Data.Order.OrderID == "" {
		return gatewayEvent{}, ErrInvalidPayload
	}
	return gatewayEvent{
		OrderID:   body.Data.Order.OrderID,
		PaymentID: body.Data.Payment.CfPaymentID.String(),
	}, nil
}
