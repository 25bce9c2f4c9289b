// Package module wires the postprocess service from deps and ambient options
package module

import (
	"context"
	"io"

	"hh4b/internal/modkit"
	"hh4b/internal/platform/config"
	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/logger"
	"hh4b/internal/platform/metrics"
	"hh4b/internal/platform/objectstore"
	"hh4b/internal/platform/store/pg"
	"hh4b/internal/services/postprocess/artifacts"
	"hh4b/internal/services/postprocess/collab"
	"hh4b/internal/services/postprocess/domain"
	"hh4b/internal/services/postprocess/ledger"
	"hh4b/internal/services/postprocess/mirror"
	"hh4b/internal/services/postprocess/service"
)

// seams
var (
	newMinIO      = objectstore.NewMinIOClient
	checkBucket   = objectstore.CheckBucket
	prepareLedger = openLedger
)

// Run carries the per-invocation knobs that come from the command line
type Run struct {
	DryRun      bool
	MetricsFile string

	// Processor overrides the subprocess bridge when set
	Processor domain.Processor
	// ProcessorStderr receives the bridge's stderr
	ProcessorStderr io.Writer
}

// Ports defines the postprocess module ports
type Ports struct {
	Service *service.Service
	Store   *artifacts.Store
}

// Module implements the postprocess module
type Module struct {
	deps    modkit.Deps
	cfg     domain.RunConfig
	run     Run
	ports   Ports
	metrics *metrics.Job
	log     logger.Logger
}

var _ modkit.Module = (*Module)(nil)

// OpenDeps builds Deps from the environment. A ledger database that cannot be
// opened is logged and left out; the run does not depend on it.
func OpenDeps(ctx context.Context, conf config.Conf, log logger.Logger) modkit.Deps {
	deps := modkit.Deps{Log: log, Cfg: conf}
	opts := FromConfig(conf)
	if opts.Ledger.URL == "" {
		return deps
	}
	client, err := pg.Open(ctx, opts.Ledger, pg.Tracer(log), nil)
	if err != nil {
		log.Warn().Err(err).Msg("ledger disabled: cannot open database")
		return deps
	}
	deps.PG = client
	return deps
}

// New constructs the postprocess module for one validated run configuration
func New(ctx context.Context, deps modkit.Deps, cfg domain.RunConfig, run Run) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	log := deps.Log

	store := artifacts.New(cfg.OutputDir, log)

	proc := run.Processor
	if proc == nil {
		proc = collab.NewExec(collab.Options{
			Command: opts.ProcessorCmd,
			Dir:     opts.ProcessorDir,
			Stderr:  run.ProcessorStderr,
		}, log)
	}

	svc := service.New(proc, store, log).WithDryRun(run.DryRun)
	m := &Module{deps: deps, cfg: cfg, run: run, log: log}

	if deps.HasPG() && !run.DryRun {
		lctx, cancel := context.WithTimeout(ctx, service.LedgerTimeout)
		l, err := prepareLedger(lctx, deps.PG)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("ledger disabled: database unavailable")
		} else {
			svc.WithLedger(l)
		}
	}

	if opts.Mirror.Enabled() && !run.DryRun {
		client, err := newMinIO(opts.Mirror)
		if err != nil {
			return nil, perr.WithOp(err, "mirror")
		}
		if err := checkBucket(ctx, client, opts.Mirror); err != nil {
			return nil, perr.WithOp(err, "mirror")
		}
		svc.WithMirror(mirror.New(client, opts.Mirror, cfg.TemplatesTag, log))
	}

	if run.MetricsFile != "" {
		m.metrics = metrics.NewJob()
		svc.WithRecorder(m.metrics)
	}

	m.ports = Ports{Service: svc, Store: store}
	return m, nil
}

// openLedger checks the database answers and that the ledger tables exist
func openLedger(ctx context.Context, db *pg.PG) (domain.Ledger, error) {
	if err := db.Ping(ctx); err != nil {
		return nil, perr.FromPostgres(err, "ping ledger database")
	}
	l := ledger.New(db)
	if err := l.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Run executes the configured run and flushes metrics. A metrics file that cannot
// be written is logged; it never changes the run's outcome.
func (m *Module) Run(ctx context.Context) (domain.RunSummary, error) {
	sum, err := m.ports.Service.Run(ctx, m.cfg)
	if m.metrics != nil {
		if werr := m.metrics.WriteFile(m.run.MetricsFile); werr != nil {
			m.log.Warn().Err(werr).Msg("metrics not written")
		}
	}
	return sum, err
}

// Name returns the module name
func (m *Module) Name() string { return "postprocess" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Close releases the ledger pool
func (m *Module) Close() { m.deps.Close() }
