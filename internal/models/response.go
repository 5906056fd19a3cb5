package models

import "time"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status       string `json:"status"`
	CacheEntries int    `json:"cacheEntries"`
	CurrentTime  int64  `json:"currentTime"`
}

// NewHealthResponse builds an "ok" health payload stamped with t.
func NewHealthResponse(cacheEntries int, t time.Time) HealthResponse {
	return HealthResponse{
		Status:       "ok",
		CacheEntries: cacheEntries,
		CurrentTime:  t.UnixMilli(),
	}
}
