package main

import (
	"context"

	"spotcrawl/internal/platform/config"
	"spotcrawl/internal/platform/logger"
	phttp "spotcrawl/internal/platform/net/http"
	"spotcrawl/internal/platform/store"

	"spotcrawl/internal/services/api"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		panic(err)
	}

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	dbCfg := root.Prefix("SERVICE_PGSQL_")

	// bring up logging early
	l := logger.Get()

	st, err := store.Open(
		context.Background(),
		store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         dbCfg.MustString("DBURL"),
				MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
				LogSQL:      dbCfg.MayBool("LOG_SQL", false),
			},
			RD: store.RDConfig{
				Enabled: true,
				URL:     root.MayString("REDIS_URL", "redis://localhost:6379/0"),
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_PORT)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
