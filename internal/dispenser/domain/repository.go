package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, dispenser *Dispenser) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Dispenser, error)
	List(ctx context.Context, db *gorm.DB) ([]Dispenser, error)
}
