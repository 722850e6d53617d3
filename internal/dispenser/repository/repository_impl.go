package repository

import (
	"context"

	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() dispenserdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, d *dispenserdomain.Dispenser) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO dispensers (id, flow_volume, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		d.ID,
		d.FlowVolume,
		d.CreatedAt,
		d.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*dispenserdomain.Dispenser, error) {
	var dispenser dispenserdomain.Dispenser
	err := db.WithContext(ctx).Raw(
		`SELECT id, flow_volume, created_at, updated_at
		 FROM dispensers WHERE id = ?`,
		id,
	).Scan(&dispenser).Error
	if err != nil {
		return nil, err
	}
	if dispenser.ID == "" {
		return nil, nil
	}
	return &dispenser, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]dispenserdomain.Dispenser, error) {
	var dispensers []dispenserdomain.Dispenser
	err := db.WithContext(ctx).Raw(
		`SELECT id, flow_volume, created_at, updated_at
		 FROM dispensers ORDER BY created_at ASC, id ASC`,
	).Scan(&dispensers).Error
	if err != nil {
		return nil, err
	}
	return dispensers, nil
}
