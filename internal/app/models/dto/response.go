package dto

import "time"

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp" example:"2024-08-01T12:01:05.123Z"`
}

// NewDataResponse wraps data in an APIResponse
func NewDataResponse(data interface{}) APIResponse {
	return APIResponse{Data: data, Timestamp: time.Now()}
}

// SuccessResponse represents a standard success response for API endpoints
type SuccessResponse struct {
	Message string `json:"message"`
}

// LinkResponse carries a generated deep link
type LinkResponse struct {
	URL string `json:"url" example:"https://wa.me/919820012345?text=..."`
}

// SyncResponse reports the result of a manual refresh
type SyncResponse struct {
	LoadedAt time.Time      `json:"loadedAt"`
	Counts   map[string]int `json:"counts"`
}

// HealthResponse reports liveness and data freshness
type HealthResponse struct {
	Status   string    `json:"status" example:"ok"`
	LoadedAt time.Time `json:"loadedAt"`
}
