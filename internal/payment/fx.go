package payment

import (
	"go.uber.org/fx"

	"github.com/deskhivelabs/deskhive/internal/payment/adapters"
	"github.com/deskhivelabs/deskhive/internal/payment/adapters/cashfree"
	"github.com/deskhivelabs/deskhive/internal/payment/adapters/razorpay"
	"github.com/deskhivelabs/deskhive/internal/payment/repository"
	paymentservice "github.com/deskhivelabs/deskhive/internal/payment/service"
	"github.com/deskhivelabs/deskhive/internal/payment/webhook"
)

var Module = fx.Module("payment",
	fx.Provide(repository.Provide),
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(
			razorpay.NewFactory(),
			cashfree.NewFactory(),
		)
	}),
	fx.Provide(paymentservice.NewService),
	fx.Provide(webhook.NewService),
)
