// Package domain contains persistence models for the dispenser registry.
package domain

import "time"

// Dispenser is a registered metering unit with a fixed volumetric flow rate.
type Dispenser struct {
	ID         string    `json:"id" gorm:"type:text;primaryKey"`
	FlowVolume float64   `json:"flow_volume" gorm:"not null"` // volume per second, immutable
	CreatedAt  time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Dispenser) TableName() string { return "dispensers" }
