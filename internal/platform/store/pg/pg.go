// Package pg provides a Postgres client using pgxpool with optional query tracing
package pg

import (
	"context"
	"time"

	perr "hh4b/internal/platform/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures pgxpool for pg
type Config struct {
	URL      string
	MaxConns int32
	SlowMs   int
	AppName  string
}

// Querier is the slice of pgx the rest of the module depends on, so callers can
// be tested without a database
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG is a postgres client with pool and optional tracer
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var _ Querier = (*PG)(nil)

var newPool = pgxpool.NewWithConfig

// Open creates a new PG client with the given config, optional tracer, and optional pool config mutator
func Open(ctx context.Context, cfg Config, tracer QueryTracer, poolCfgMut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfiguration, "parse ledger database url")
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		if pcfg.ConnConfig.RuntimeParams == nil {
			pcfg.ConnConfig.RuntimeParams = map[string]string{}
		}
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	if poolCfgMut != nil {
		poolCfgMut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, perr.FromPostgres(err, "open ledger pool")
	}
	return &PG{
		Pool:   pool,
		Tracer: tracer,
		SlowMs: cfg.SlowMs,
	}, nil
}

// Close closes the pool
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// Exec runs a statement and returns the affected row count
func (p *PG) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	start := time.Now()
	ct, err := p.Pool.Exec(ctx, sql, args...)
	p.emit(ctx, sql, args, start, err)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// QueryRow runs a single-row query; the trace event fires once Scan returns
func (p *PG) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	start := time.Now()
	r := p.Pool.QueryRow(ctx, sql, args...)
	return row{r: r, after: func(err error) { p.emit(ctx, sql, args, start, err) }}
}

// Ping checks connectivity
func (p *PG) Ping(ctx context.Context) error {
	var one int
	return p.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (p *PG) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if p == nil || p.Tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	p.Tracer.OnQuery(ctx, QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      p.SlowMs > 0 && elapsedUS >= int64(p.SlowMs)*1000,
	})
}

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}
