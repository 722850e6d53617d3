package domain

import (
	"context"
	"errors"
)

type Service interface {
	Open(ctx context.Context, dispenserID string) (*OpenResult, error)
	Close(ctx context.Context, dispenserID string) (*CloseResult, error)
}

type OpenResult struct {
	Status    string `json:"status"`
	StartTime string `json:"start_time"`
}

// CloseResult reports the computed revenue as a plain two-decimal string;
// the close endpoint historically carries no currency symbol.
type CloseResult struct {
	Status  string `json:"status"`
	EndTime string `json:"end_time"`
	Revenue string `json:"revenue"`
}

var (
	ErrTapAlreadyOpen = errors.New("tap_already_open")
	ErrNoOpenTap      = errors.New("no_open_tap_event")
)
