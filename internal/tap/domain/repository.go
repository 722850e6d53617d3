package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *TapEvent) error
	// Close flips the event to closed and sets its end time in one UPDATE so
	// readers never observe a half-closed event.
	Close(ctx context.Context, db *gorm.DB, event *TapEvent) error
	FindOpenByDispenser(ctx context.Context, db *gorm.DB, dispenserID string) (*TapEvent, error)
	ListByDispenser(ctx context.Context, db *gorm.DB, dispenserID string) ([]TapEvent, error)
	ListClosedByDispenser(ctx context.Context, db *gorm.DB, dispenserID string) ([]TapEvent, error)
}
