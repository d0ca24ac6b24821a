// Package http provides the status endpoint
package http

import (
	stdhttp "net/http"

	"spotcrawl/internal/modkit/httpkit"
	svc "spotcrawl/internal/services/api/status/service"
)

// Register mounts the status endpoint on the given router
func Register(r httpkit.Router, s *svc.Service) {
	h := &handlers{svc: s}
	httpkit.GetJSON(r, "/status", h.status)
}

type handlers struct{ svc *svc.Service }

func (h *handlers) status(r *stdhttp.Request) (any, error) {
	return h.svc.Snapshot(r.Context()), nil
}
