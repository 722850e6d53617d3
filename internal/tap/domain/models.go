// Package domain contains persistence models for the tap event ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// TapEvent is one open-to-close usage session of a dispenser. FlowVolume is
// the dispenser's rate at the moment the tap was opened, copied into the
// event so later rate changes cannot re-price history.
type TapEvent struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	DispenserID string       `json:"dispenser_id" gorm:"type:text;not null;index:ix_tap_events_dispenser"`
	Status      Status       `json:"status" gorm:"type:text;not null"`
	StartedAt   time.Time    `json:"started_at" gorm:"not null"`
	EndedAt     *time.Time   `json:"ended_at"`
	FlowVolume  float64      `json:"flow_volume" gorm:"not null"` // snapshot
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TapEvent) TableName() string { return "tap_events" }

// TimestampLayout renders ISO-8601 with millisecond precision, the wire
// format for every timestamp this service emits.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ElapsedSeconds reports the billable duration of the event against the
// given end time.
func (e *TapEvent) ElapsedSeconds(end time.Time) float64 {
	seconds := end.Sub(e.StartedAt).Seconds()
	if seconds < 0 {
		return 0
	}
	return seconds
}
