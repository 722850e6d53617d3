package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/openbar/tapflow/internal/billing/domain"
	"github.com/openbar/tapflow/internal/clock"
	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
	obsmetrics "github.com/openbar/tapflow/internal/observability/metrics"
	tapdomain "github.com/openbar/tapflow/internal/tap/domain"
	"github.com/openbar/tapflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          tapdomain.Repository
	DispenserRepo dispenserdomain.Repository
	Pricing       billingdomain.Pricing
	Metrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          tapdomain.Repository
	dispenserRepo dispenserdomain.Repository
	pricing       billingdomain.Pricing
	metrics       *obsmetrics.Metrics
}

func New(p Params) tapdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("tap.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		dispenserRepo: p.DispenserRepo,
		pricing:       p.Pricing,
		metrics:       p.Metrics,
	}
}

// Open moves the dispenser from idle to running. A dispenser may have at
// most one open event; the check runs inside the transaction and the partial
// unique index on (dispenser_id) WHERE status='open' backstops concurrent
// opens, which surface as a duplicate key error.
func (s *Service) Open(ctx context.Context, dispenserID string) (*tapdomain.OpenResult, error) {
	now := s.clock.Now().UTC()
	event := &tapdomain.TapEvent{
		ID:          s.genID.Generate(),
		DispenserID: dispenserID,
		Status:      tapdomain.StatusOpen,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dispenser, err := s.dispenserRepo.FindByID(ctx, tx, dispenserID)
		if err != nil {
			return err
		}
		if dispenser == nil {
			return dispenserdomain.ErrNotFound
		}

		open, err := s.repo.FindOpenByDispenser(ctx, tx, dispenserID)
		if err != nil {
			return err
		}
		if open != nil {
			return tapdomain.ErrTapAlreadyOpen
		}

		event.FlowVolume = dispenser.FlowVolume
		return s.repo.Insert(ctx, tx, event)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tapdomain.ErrTapAlreadyOpen
		}
		return nil, err
	}

	s.metrics.RecordTapOpened(ctx)
	s.log.Info("tap opened",
		zap.String("dispenser_id", dispenserID),
		zap.String("event_id", event.ID.String()),
	)

	return &tapdomain.OpenResult{
		Status:    string(tapdomain.StatusOpen),
		StartTime: tapdomain.FormatTimestamp(event.StartedAt),
	}, nil
}

// Close ends the open event and prices the elapsed interval against the
// flow volume snapshot taken at open time.
func (s *Service) Close(ctx context.Context, dispenserID string) (*tapdomain.CloseResult, error) {
	now := s.clock.Now().UTC()

	var event *tapdomain.TapEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dispenser, err := s.dispenserRepo.FindByID(ctx, tx, dispenserID)
		if err != nil {
			return err
		}
		if dispenser == nil {
			return dispenserdomain.ErrNotFound
		}

		event, err = s.repo.FindOpenByDispenser(ctx, tx, dispenserID)
		if err != nil {
			return err
		}
		if event == nil {
			return tapdomain.ErrNoOpenTap
		}

		endedAt := endTimeFor(event, now)
		event.Status = tapdomain.StatusClosed
		event.EndedAt = &endedAt
		event.UpdatedAt = now
		return s.repo.Close(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	revenue := s.pricing.Revenue(event.FlowVolume, event.ElapsedSeconds(*event.EndedAt))

	s.metrics.RecordTapClosed(ctx, revenue.InexactFloat64())
	s.log.Info("tap closed",
		zap.String("dispenser_id", dispenserID),
		zap.String("event_id", event.ID.String()),
		zap.String("revenue", revenue.StringFixed(2)),
	)

	return &tapdomain.CloseResult{
		Status:  string(tapdomain.StatusClosed),
		EndTime: tapdomain.FormatTimestamp(*event.EndedAt),
		Revenue: revenue.StringFixed(2),
	}, nil
}

// endTimeFor keeps ended_at monotonic with respect to started_at even if
// the clock stepped backwards between the two calls.
func endTimeFor(event *tapdomain.TapEvent, now time.Time) time.Time {
	if now.Before(event.StartedAt) {
		return event.StartedAt
	}
	return now
}
