package models

// BatchRequest is the payload for POST /api/v1/batch/compare.
type BatchRequest struct {
	CompareRequest

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/compare.
type BatchResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Total  int          `json:"total"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Total  int              `json:"total"`
	Result *CompareResponse `json:"result,omitempty"`
	Error  *ErrorDetail     `json:"error,omitempty"`
}

// BatchJob tracks an asynchronous comparison.
type BatchJob struct {
	ID        string
	Status    string // "processing", "completed", "failed"
	Total     int
	Result    *CompareResponse
	Error     *ErrorDetail
	CreatedAt int64 // unix timestamp
}
