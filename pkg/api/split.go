package api

import (
	"github.com/shopspring/decimal"
)

// SplitSpec describes how to allocate a total. Which participant list is read
// depends on Method: ParticipantIDs for "equal", Percentages for
// "percentage", Amounts for "exact". Order is significant in every list.
type SplitSpec struct {
	Method         string                  `json:"method"`
	TotalAmount    decimal.Decimal         `json:"total_amount"`
	ParticipantIDs []string                `json:"participant_ids,omitempty"`
	Percentages    []PercentageParticipant `json:"percentages,omitempty"`
	Amounts        []ExactParticipant      `json:"amounts,omitempty"`
}

// PercentageParticipant is one participant of a percentage split.
type PercentageParticipant struct {
	UserID     string          `json:"user_id"`
	Percentage decimal.Decimal `json:"percentage"`
}

// ExactParticipant is one participant of an exact split.
type ExactParticipant struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Share is one participant's allocated amount.
type Share struct {
	UserID     string `json:"user_id"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage,omitempty"`
}

type ComputeSplitRequest struct {
	SplitSpec
}

type ComputeSplitResponse struct {
	Method      string  `json:"method"`
	TotalAmount string  `json:"total_amount"`
	Shares      []Share `json:"shares"`
}
