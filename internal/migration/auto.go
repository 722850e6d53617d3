package migration

import (
	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
	tapdomain "github.com/openbar/tapflow/internal/tap/domain"
	"gorm.io/gorm"
)

// autoMigrate builds the schema from the models for non-postgres databases
// (sqlite in local development and tests). The one-open-event-per-dispenser
// unique index is partial, which AutoMigrate cannot express, so it is
// created explicitly.
func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&dispenserdomain.Dispenser{},
		&tapdomain.TapEvent{},
	); err != nil {
		return err
	}
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_tap_events_open
		 ON tap_events (dispenser_id)
		 WHERE status = 'open'`,
	).Error
}

// AutoMigrate is exported for test fixtures that set up an in-memory
// database without the fx graph.
func AutoMigrate(db *gorm.DB) error { return autoMigrate(db) }
