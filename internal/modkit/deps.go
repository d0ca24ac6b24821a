package modkit

import (
	"spotcrawl/internal/modkit/repokit"
	"spotcrawl/internal/platform/config"
	"spotcrawl/internal/platform/logger"
	"spotcrawl/internal/platform/store/rd"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	RD  *rd.RD
}
