// Package api provides the read-only HTTP surface: the search passthrough
// and the system status snapshot
package api

import (
	"spotcrawl/internal/modkit"
	"spotcrawl/internal/modkit/httpkit"
	"spotcrawl/internal/modkit/module"
	"spotcrawl/internal/platform/config"
	"spotcrawl/internal/platform/logger"
	phttp "spotcrawl/internal/platform/net/http"
	"spotcrawl/internal/platform/store"

	searchhttp "spotcrawl/internal/services/api/search/http"
	statushttp "spotcrawl/internal/services/api/status/http"
	statussvc "spotcrawl/internal/services/api/status/service"
	catalogdom "spotcrawl/internal/services/catalog/domain"
	catalogmod "spotcrawl/internal/services/catalog/module"
	crawlermod "spotcrawl/internal/services/crawler/module"
	ratelimitsvc "spotcrawl/internal/services/ratelimit/service"
	registrysvc "spotcrawl/internal/services/registry/service"
	spotifysvc "spotcrawl/internal/services/spotify/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableProfiler bool
}

// Mount mounts the API onto the given router. The search endpoint shares the
// crawler's rate limiter and token cache through redis, so API traffic and
// worker traffic draw from the same budget.
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Log: *opt.Logger,
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		RD:  opt.Store.RD,
	}

	copts := crawlermod.FromConfig(deps.Cfg)
	scfg := deps.Cfg.Prefix("SPOTIFY_")

	limiter := ratelimitsvc.New(deps.RD.Client, ratelimitsvc.Config{
		Window: copts.RateWindow,
		Max:    copts.RateMax,
	}, deps.Log)

	registry := registrysvc.New(deps.RD.Client, registrysvc.Config{
		MaxWorkers:    copts.MaxWorkers,
		SearchTimeout: copts.SearchTimeout,
	}, deps.Log)

	tokens := spotifysvc.NewTokenCache(deps.RD.Client, spotifysvc.TokenConfig{
		ClientID:     scfg.MayString("CLIENT_ID", ""),
		ClientSecret: scfg.MayString("CLIENT_SECRET", ""),
		AuthURL:      scfg.MayString("AUTH_URL", ""),
		StaticBearer: scfg.MayString("BEARER_TOKEN", ""),
	}, deps.Log)

	search := spotifysvc.New(spotifysvc.Config{
		BaseURL: scfg.MayString("BASE_URL", ""),
	}, tokens, limiter, deps.Log)

	catalog := catalogmod.New(deps)
	module.Register(catalog.Name(), catalog.Ports())
	reader := module.MustPortsOf[catalogdom.ReaderPort](catalog)
	status := statussvc.New(registry, limiter, reader, deps.Log)

	r.Group(func(g phttp.Router) {
		g.Use(httpkit.CommonStack()...)
		searchhttp.Register(g, search)
		statushttp.Register(g, status)
	})

	r.Handle("/metrics", promhttp.Handler())
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
}
