package httpserver

import (
	"github.com/mselser95/claimpool/internal/reputation"
	"github.com/mselser95/claimpool/pkg/types"
)

// ComputeRequest is the body of POST /api/settlements/compute.
type ComputeRequest struct {
	Pool   *types.AnalysisPool      `json:"pool" validate:"required"`
	Stakes []types.ParticipantStake `json:"stakes"`
}

// PreviewRequest is the body of POST /api/settlements/preview.
type PreviewRequest struct {
	Pool   *types.AnalysisPool `json:"pool" validate:"required"`
	Choice types.Choice        `json:"choice" validate:"required"`
	Amount int64               `json:"amount" validate:"gt=0"`
}

// PayoutRequest is the body of POST /api/settlements/payout.
type PayoutRequest struct {
	Pool        *types.AnalysisPool      `json:"pool" validate:"required"`
	Stakes      []types.ParticipantStake `json:"stakes"`
	Participant string                   `json:"participant" validate:"required,eth_addr"`
}

// SummarizeRequest is the body of POST /api/reputation/summarize.
type SummarizeRequest struct {
	Participant string             `json:"participant" validate:"required,eth_addr"`
	History     []reputation.Entry `json:"history" validate:"dive"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
