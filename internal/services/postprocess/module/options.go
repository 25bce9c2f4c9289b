package module

import (
	"hh4b/internal/platform/config"
	"hh4b/internal/platform/objectstore"
	"hh4b/internal/platform/store/pg"
	"hh4b/internal/services/postprocess/collab"
)

// Options holds the ambient settings of the postprocess module
type Options struct {
	ProcessorCmd []string
	ProcessorDir string

	Ledger pg.Config
	Mirror objectstore.Config
}

// FromConfig reads the module options from config with HH4B_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("HH4B_")
	lg := c.Prefix("LEDGER_PG_")
	return Options{
		ProcessorCmd: c.MayFields("PROCESSOR_CMD", collab.DefaultCommand),
		ProcessorDir: c.MayString("PROCESSOR_DIR", ""),
		Ledger: pg.Config{
			URL:      lg.MayString("DBURL", ""),
			MaxConns: int32(lg.MayInt("MAX_CONNS", 2)),
			SlowMs:   lg.MayInt("SLOW_MS", 500),
			AppName:  "hh4b-postprocess",
		},
		Mirror: objectstore.ConfigFromEnv(c.Prefix("MIRROR_")),
	}
}
