package model

import "time"

// AnalysisSnapshot is one persisted composite view run. The view itself is
// stored as JSON so historical snapshots survive schema evolution in the
// aggregation code.
type AnalysisSnapshot struct {
	CreatedAt   time.Time `json:"created_at"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	View        []byte    `json:"view"`
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Days        int       `json:"days"`
}
