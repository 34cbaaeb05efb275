package subscription

import (
	"github.com/deskhivelabs/deskhive/internal/subscription/repository"
	"github.com/deskhivelabs/deskhive/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
