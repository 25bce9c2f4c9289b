// Package modkit provides module wiring and core deps
package modkit

import (
	"hh4b/internal/platform/config"
	"hh4b/internal/platform/logger"
	"hh4b/internal/platform/store/pg"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  *pg.PG // nil when no ledger database is configured
}

// HasPG reports whether a ledger database is wired
func (d Deps) HasPG() bool { return d.PG != nil && d.PG.Pool != nil }

// Close releases whatever Deps owns
func (d Deps) Close() { d.PG.Close() }
