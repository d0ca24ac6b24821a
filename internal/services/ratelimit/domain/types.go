// Package domain defines the observable shapes of the shared sliding window
package domain

// Info is a point-in-time snapshot of the shared rate window
type Info struct {
	WindowSize           int     `json:"window_size"`
	CurrentRequests      int     `json:"current_requests"`
	MaxRequests          int     `json:"max_requests"`
	RemainingRequests    int     `json:"remaining_requests"`
	TimeUntilNextRequest float64 `json:"time_until_next_request"`
	WindowStart          float64 `json:"window_start"`
	WindowEnd            float64 `json:"window_end"`
}

// Request is one admitted request inside the current window
type Request struct {
	Query        string  `json:"query"`
	Offset       int     `json:"offset"`
	Limit        int     `json:"limit"`
	Timestamp    float64 `json:"timestamp"`
	ArtistsFound int     `json:"artists_found"`
}
