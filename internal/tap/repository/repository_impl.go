package repository

import (
	"context"

	tapdomain "github.com/openbar/tapflow/internal/tap/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tapdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *tapdomain.TapEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tap_events (id, dispenser_id, status, started_at, ended_at, flow_volume, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.DispenserID,
		e.Status,
		e.StartedAt,
		e.EndedAt,
		e.FlowVolume,
		e.CreatedAt,
		e.UpdatedAt,
	).Error
}

func (r *repo) Close(ctx context.Context, db *gorm.DB, e *tapdomain.TapEvent) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE tap_events
		 SET status = ?, ended_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		tapdomain.StatusClosed,
		e.EndedAt,
		e.UpdatedAt,
		e.ID,
		tapdomain.StatusOpen,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tapdomain.ErrNoOpenTap
	}
	return nil
}

func (r *repo) FindOpenByDispenser(ctx context.Context, db *gorm.DB, dispenserID string) (*tapdomain.TapEvent, error) {
	var event tapdomain.TapEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, dispenser_id, status, started_at, ended_at, flow_volume, created_at, updated_at
		 FROM tap_events
		 WHERE dispenser_id = ? AND status = ?
		 ORDER BY id DESC
		 LIMIT 1`,
		dispenserID,
		tapdomain.StatusOpen,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) ListByDispenser(ctx context.Context, db *gorm.DB, dispenserID string) ([]tapdomain.TapEvent, error) {
	return r.list(ctx, db,
		`SELECT id, dispenser_id, status, started_at, ended_at, flow_volume, created_at, updated_at
		 FROM tap_events
		 WHERE dispenser_id = ?
		 ORDER BY id ASC`,
		dispenserID,
	)
}

func (r *repo) ListClosedByDispenser(ctx context.Context, db *gorm.DB, dispenserID string) ([]tapdomain.TapEvent, error) {
	return r.list(ctx, db,
		`SELECT id, dispenser_id, status, started_at, ended_at, flow_volume, created_at, updated_at
		 FROM tap_events
		 WHERE dispenser_id = ? AND status = ?
		 ORDER BY id ASC`,
		dispenserID,
		tapdomain.StatusClosed,
	)
}

func (r *repo) list(ctx context.Context, db *gorm.DB, query string, args ...any) ([]tapdomain.TapEvent, error) {
	var events []tapdomain.TapEvent
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
