package dto

// AnalyzeQuery binds the shared ?days query parameter. Zero means "use the
// configured default window".
type AnalyzeQuery struct {
	Days int `form:"days"`
}

type ConnectionResponse struct {
	Platform  string `json:"platform"`
	Connected bool   `json:"connected"`
}

type NudgeResponse struct {
	ID          int64   `json:"id,string"`
	Message     string  `json:"message"`
	Status      string  `json:"status"`
	Fallback    bool    `json:"fallback"`
	DeliveredAt *string `json:"delivered_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
