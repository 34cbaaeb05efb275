package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/deskhivelabs/deskhive/internal/config"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(cfg config.Config, conn *gorm.DB) error {
		if cfg.Database.Driver == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunPostgres(sqlDB)
		}
		return RunSqlite(conn)
	}),
)
