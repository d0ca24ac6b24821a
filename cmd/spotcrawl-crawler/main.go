package main

import (
	"context"
	"errors"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"spotcrawl/internal/modkit"
	"spotcrawl/internal/modkit/module"
	"spotcrawl/internal/modkit/repokit"
	"spotcrawl/internal/platform/config"
	"spotcrawl/internal/platform/logger"
	"spotcrawl/internal/platform/store"

	catalogmod "spotcrawl/internal/services/catalog/module"
	crawlermod "spotcrawl/internal/services/crawler/module"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		panic(err)
	}

	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL"),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
		},
		RD: store.RDConfig{
			Enabled: true,
			URL:     root.MayString("REDIS_URL", "redis://localhost:6379/0"),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	repokit.MustGuard(ctx, st)

	deps := modkit.Deps{
		Log: *l,
		Cfg: root,
		PG:  st.PG,
		RD:  st.RD,
	}

	catalog := catalogmod.New(deps)
	module.Register(catalog.Name(), catalog.Ports())
	ports := module.MustPortsOf[catalogmod.Ports](catalog)

	// durable tables must exist before the first worker records anything
	if err := ports.Schema.EnsureSchema(ctx); err != nil {
		l.Panic().Err(err).Msg("schema bootstrap failed")
	}

	crawler := crawlermod.New(deps, ports)
	module.Register(crawler.Name(), crawler.Ports())
	runner := module.MustPortsOf[crawlermod.Ports](crawler).Runner

	// optional metrics listener for the crawl counters
	if addr := root.MayString("CRAWLER_METRICS_ADDR", ""); addr != "" {
		go func() {
			mux := stdhttp.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &stdhttp.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			l.Info().Str("addr", addr).Msg("metrics listening")
			if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
				l.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("crawler stopped")
	}
	l.Info().Msg("crawler shut down cleanly")
}
