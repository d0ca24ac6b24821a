// Package httpkit provides tiny HTTP helpers and adapters over the platform router
package httpkit

import (
	"net/http"

	phttp "spotcrawl/internal/platform/net/http"
)

// Router aliases the platform router seam
type Router = phttp.Router

// GetJSON mounts a body-less JSON handler under GET
func GetJSON(r Router, path string, h func(*http.Request) (any, error)) {
	phttp.GetJSON(r, path, h)
}

// PostJSON mounts a pure JSON handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PostJSON(r, path, h)
}
