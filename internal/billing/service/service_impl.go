package service

import (
	"context"
	"fmt"
	"time"

	billingdomain "github.com/openbar/tapflow/internal/billing/domain"
	"github.com/openbar/tapflow/internal/clock"
	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
	tapdomain "github.com/openbar/tapflow/internal/tap/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	DispenserRepo dispenserdomain.Repository
	TapRepo       tapdomain.Repository
	Pricing       billingdomain.Pricing
}

// Service computes summaries and spending reports. It never mutates state;
// every method is a bounded read over the registry and the ledger.
type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	dispenserRepo dispenserdomain.Repository
	tapRepo       tapdomain.Repository
	pricing       billingdomain.Pricing
}

func New(p Params) billingdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("billing.service"),
		clock:         p.Clock,
		dispenserRepo: p.DispenserRepo,
		tapRepo:       p.TapRepo,
		pricing:       p.Pricing,
	}
}

func (s *Service) DispenserSummary(ctx context.Context, dispenserID string) (*billingdomain.DispenserSummary, error) {
	dispenser, err := s.dispenserRepo.FindByID(ctx, s.db, dispenserID)
	if err != nil {
		return nil, err
	}
	if dispenser == nil {
		return nil, dispenserdomain.ErrNotFound
	}
	return s.summarize(ctx, dispenser)
}

func (s *Service) FleetSummary(ctx context.Context) ([]billingdomain.DispenserSummary, error) {
	dispensers, err := s.dispenserRepo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	summaries := make([]billingdomain.DispenserSummary, 0, len(dispensers))
	for i := range dispensers {
		summary, err := s.summarize(ctx, &dispensers[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// summarize aggregates closed events only; an in-flight open event counts
// toward neither usage_count nor total_duration.
func (s *Service) summarize(ctx context.Context, dispenser *dispenserdomain.Dispenser) (*billingdomain.DispenserSummary, error) {
	events, err := s.tapRepo.ListClosedByDispenser(ctx, s.db, dispenser.ID)
	if err != nil {
		return nil, err
	}

	var totalSeconds float64
	product := decimal.Zero
	for i := range events {
		event := &events[i]
		if event.EndedAt == nil {
			continue
		}
		seconds := event.ElapsedSeconds(*event.EndedAt)
		totalSeconds += seconds
		product = product.Add(
			decimal.NewFromFloat(event.FlowVolume).Mul(decimal.NewFromFloat(seconds)),
		)
	}
	revenue := product.Mul(s.pricing.UnitPrice).Round(2)

	return &billingdomain.DispenserSummary{
		DispenserID:   dispenser.ID,
		UsageCount:    len(events),
		TotalDuration: fmt.Sprintf("%.2f seconds", totalSeconds),
		TotalRevenue:  s.pricing.Display(revenue),
	}, nil
}

// SpendingDetail reports every tap session for a dispenser in ledger order.
// A still-open event is billed up to the current instant. Each usage is
// rounded to two decimals before the amounts are summed; summing unrounded
// values would change cent-level results.
func (s *Service) SpendingDetail(ctx context.Context, dispenserID string) (*billingdomain.SpendingDetail, error) {
	dispenser, err := s.dispenserRepo.FindByID(ctx, s.db, dispenserID)
	if err != nil {
		return nil, err
	}
	if dispenser == nil {
		return nil, dispenserdomain.ErrNotFound
	}

	events, err := s.tapRepo.ListByDispenser(ctx, s.db, dispenserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	usages := make([]billingdomain.Usage, 0, len(events))
	amount := decimal.Zero
	for i := range events {
		usage := s.usageFor(&events[i], now)
		usages = append(usages, usage)
		spent, err := decimal.NewFromString(usage.TotalSpent)
		if err != nil {
			return nil, err
		}
		amount = amount.Add(spent)
	}

	return &billingdomain.SpendingDetail{
		Amount: s.pricing.Display(amount.Round(2)),
		Usages: usages,
	}, nil
}

func (s *Service) usageFor(event *tapdomain.TapEvent, now time.Time) billingdomain.Usage {
	if event.StartedAt.IsZero() {
		// Malformed ledger row; report it without pricing anything.
		return billingdomain.Usage{
			FlowVolume: event.FlowVolume,
			TotalSpent: decimal.Zero.StringFixed(2),
		}
	}

	opened := tapdomain.FormatTimestamp(event.StartedAt)
	end := now
	var closed *string
	if event.EndedAt != nil {
		end = *event.EndedAt
		formatted := tapdomain.FormatTimestamp(end)
		closed = &formatted
	}

	spent := s.pricing.Revenue(event.FlowVolume, event.ElapsedSeconds(end))
	return billingdomain.Usage{
		OpenedAt:   &opened,
		ClosedAt:   closed,
		FlowVolume: event.FlowVolume,
		TotalSpent: spent.StringFixed(2),
	}
}
