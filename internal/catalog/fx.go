package catalog

import (
	"github.com/deskhivelabs/deskhive/internal/catalog/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog",
	fx.Provide(repository.Provide),
)
