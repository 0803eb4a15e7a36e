package model

import "time"

type NudgeStatus string

const (
	NudgeStatusPending   NudgeStatus = "pending"
	NudgeStatusDelivered NudgeStatus = "delivered"
	NudgeStatusFailed    NudgeStatus = "failed"
)

// Nudge is one generated wellness message and its delivery state.
type Nudge struct {
	CreatedAt   time.Time   `json:"created_at"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
	Message     string      `json:"message"`
	Status      NudgeStatus `json:"status"`
	Error       *string     `json:"error,omitempty"`
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	SnapshotID  *int64      `json:"snapshot_id,omitempty"`
}
