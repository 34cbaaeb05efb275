package promotion

import (
	"go.uber.org/fx"

	"github.com/deskhivelabs/deskhive/internal/promotion/domain"
	"github.com/deskhivelabs/deskhive/internal/promotion/repository"
	"github.com/deskhivelabs/deskhive/internal/promotion/service"
)

var Module = fx.Module("promotion.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewValidator),
	fx.Provide(service.NewRewards),
	fx.Provide(func(r *service.Rewards) domain.RewardIssuer { return r }),
	fx.Provide(func(r *service.Rewards) domain.ReferralDiscounts { return r }),
)
