// Package domain defines the read-only billing and aggregation contracts.
package domain

import "context"

type Service interface {
	DispenserSummary(ctx context.Context, dispenserID string) (*DispenserSummary, error)
	FleetSummary(ctx context.Context) ([]DispenserSummary, error)
	SpendingDetail(ctx context.Context, dispenserID string) (*SpendingDetail, error)
}

// DispenserSummary aggregates closed tap events only.
type DispenserSummary struct {
	DispenserID   string `json:"dispenser_id"`
	UsageCount    int    `json:"usage_count"`
	TotalDuration string `json:"total_duration"`
	TotalRevenue  string `json:"total_revenue"`
}

// Usage is one tap session in a spending report. ClosedAt is null while the
// tap is still open; TotalSpent for an open tap is billed up to "now".
type Usage struct {
	OpenedAt   *string `json:"opened_at"`
	ClosedAt   *string `json:"closed_at"`
	FlowVolume float64 `json:"flow_volume"`
	TotalSpent string  `json:"total_spent"`
}

type SpendingDetail struct {
	Amount string  `json:"amount"`
	Usages []Usage `json:"usages"`
}
