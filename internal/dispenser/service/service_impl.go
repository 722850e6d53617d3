package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
	obsmetrics "github.com/openbar/tapflow/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    dispenserdomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    dispenserdomain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) dispenserdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("dispenser.service"),
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Register(ctx context.Context, req dispenserdomain.RegisterRequest) (*dispenserdomain.Response, error) {
	if req.FlowVolume == nil {
		return nil, dispenserdomain.ErrInvalidFlowVolume
	}
	flowVolume := *req.FlowVolume
	if flowVolume <= 0 || math.IsNaN(flowVolume) || math.IsInf(flowVolume, 0) {
		return nil, dispenserdomain.ErrInvalidFlowVolume
	}

	now := time.Now().UTC()
	d := &dispenserdomain.Dispenser{
		ID:         uuid.NewString(),
		FlowVolume: flowVolume,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, d); err != nil {
		return nil, err
	}

	s.metrics.RecordDispenserRegistered(ctx)
	s.log.Info("dispenser registered",
		zap.String("dispenser_id", d.ID),
		zap.Float64("flow_volume", d.FlowVolume),
	)

	return toResponse(d), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*dispenserdomain.Response, error) {
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, dispenserdomain.ErrNotFound
	}
	return toResponse(item), nil
}

func (s *Service) List(ctx context.Context) ([]dispenserdomain.Response, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	resp := make([]dispenserdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func toResponse(d *dispenserdomain.Dispenser) *dispenserdomain.Response {
	return &dispenserdomain.Response{
		ID:         d.ID,
		FlowVolume: d.FlowVolume,
		CreatedAt:  d.CreatedAt,
	}
}
