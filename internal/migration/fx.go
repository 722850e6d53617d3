package migration

import (
	"github.com/openbar/tapflow/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migration",
	fx.Invoke(run),
)

// Migrations are written in postgres dialect; other dialects fall back to
// gorm AutoMigrate.
func run(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
	if cfg.DBType != "postgres" {
		log.Info("skipping SQL migrations", zap.String("db_type", cfg.DBType))
		return autoMigrate(gdb)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	if err := RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}
