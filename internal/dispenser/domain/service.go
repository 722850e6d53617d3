package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
}

// RegisterRequest carries the declared flow rate. FlowVolume is a pointer so
// a missing field can be told apart from zero.
type RegisterRequest struct {
	FlowVolume *float64 `json:"flowVolume"`
}

type Response struct {
	ID         string    `json:"dispenser_id"`
	FlowVolume float64   `json:"flow_volume"`
	CreatedAt  time.Time `json:"created_at"`
}

var (
	ErrInvalidFlowVolume = errors.New("invalid_flow_volume")
	ErrNotFound          = errors.New("dispenser_not_found")
)
