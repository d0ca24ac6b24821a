package http

import (
	stdhttp "net/http"
	"net/http/pprof"
)

// MountProfiler exposes net/http/pprof under prefix when enabled
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	r.Handle(prefix+"/pprof/*", stdhttp.HandlerFunc(pprof.Index))
	r.Handle(prefix+"/pprof/cmdline", stdhttp.HandlerFunc(pprof.Cmdline))
	r.Handle(prefix+"/pprof/profile", stdhttp.HandlerFunc(pprof.Profile))
	r.Handle(prefix+"/pprof/symbol", stdhttp.HandlerFunc(pprof.Symbol))
	r.Handle(prefix+"/pprof/trace", stdhttp.HandlerFunc(pprof.Trace))
}
