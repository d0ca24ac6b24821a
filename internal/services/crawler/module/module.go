// Package module wires the crawl coordinator and its collaborators
package module

import (
	"context"

	"spotcrawl/internal/modkit"
	"spotcrawl/internal/modkit/httpkit"
	catalogdom "spotcrawl/internal/services/catalog/domain"
	catalogmod "spotcrawl/internal/services/catalog/module"
	"spotcrawl/internal/services/crawler/domain"
	"spotcrawl/internal/services/crawler/service"
	cursorrepo "spotcrawl/internal/services/cursor/repo"
	cursorsvc "spotcrawl/internal/services/cursor/service"
	ratelimitsvc "spotcrawl/internal/services/ratelimit/service"
	registrysvc "spotcrawl/internal/services/registry/service"
	spotdom "spotcrawl/internal/services/spotify/domain"
	spotifysvc "spotcrawl/internal/services/spotify/service"
)

// Ports exposed by the crawler module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the crawler module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the crawler module. The catalog module provides the durable
// side; redis-backed collaborators are built here from shared deps.
func New(deps modkit.Deps, catalog catalogmod.Ports) *Module {
	opts := FromConfig(deps.Cfg)
	scfg := deps.Cfg.Prefix("SPOTIFY_")

	limiter := ratelimitsvc.New(deps.RD.Client, ratelimitsvc.Config{
		Window: opts.RateWindow,
		Max:    opts.RateMax,
	}, deps.Log)

	registry := registrysvc.New(deps.RD.Client, registrysvc.Config{
		MaxWorkers:    opts.MaxWorkers,
		SearchTimeout: opts.SearchTimeout,
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

	cursor := cursorsvc.New(deps.PG, cursorrepo.NewPG(), deps.Log)

	svc := service.New(service.Config{
		MaxWorkers: opts.MaxWorkers,
		Tick:       opts.Tick,
	}, registry, cursor, catalogPort{write: catalog.Writer, read: catalog.Reader}, limiter, search, deps.Log)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// catalogPort adapts the catalog module's split ports to the crawler's view
type catalogPort struct {
	write catalogdom.WriterPort
	read  catalogdom.ReaderPort
}

func (c catalogPort) IsCompleted(ctx context.Context, query string) (bool, error) {
	return c.read.IsCompleted(ctx, query)
}

func (c catalogPort) UpsertArtists(ctx context.Context, artists []spotdom.Artist) error {
	return c.write.UpsertArtists(ctx, artists)
}

func (c catalogPort) RecordCompletion(ctx context.Context, query string, artistsFound int) error {
	return c.write.RecordCompletion(ctx, query, artistsFound)
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "crawler" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the crawler exposes no HTTP routes
func (m *Module) MountRoutes(r httpkit.Router) {}
