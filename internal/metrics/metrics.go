package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(New),
)

type Metrics struct {
	PaymentsCompleted *prometheus.CounterVec
	WebhookDeliveries *prometheus.CounterVec
	CouponRejections  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		PaymentsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deskhive",
			Subsystem: "payments",
			Name:      "completed_total",
			Help:      "Payments moved to completed, by method and verifier path.",
		}, []string{"method", "path"}),
		WebhookDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deskhive",
			Subsystem: "payments",
			Name:      "webhook_deliveries_total",
			Help:      "Gateway webhook deliveries, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		CouponRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deskhive",
			Subsystem: "promotions",
			Name:      "coupon_rejections_total",
			Help:      "Coupon validations rejected, by reason.",
		}, []string{"reason"}),
	}
}
