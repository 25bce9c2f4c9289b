// Package ledger records run bookkeeping in Postgres. Nothing here is consulted
// when deciding whether an output directory is complete.
package ledger

import (
	"context"
	"encoding/json"
	"time"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/store/pg"
	"hh4b/internal/services/postprocess/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS postprocess_runs (
	run_id      uuid PRIMARY KEY,
	started_at  timestamptz NOT NULL,
	finished_at timestamptz,
	status      text NOT NULL,
	config      jsonb NOT NULL
);
CREATE TABLE IF NOT EXISTS postprocess_years (
	run_id        uuid NOT NULL REFERENCES postprocess_runs (run_id),
	year          text NOT NULL,
	events_path   text NOT NULL,
	cutflow_path  text NOT NULL,
	n_events      bigint NOT NULL,
	finished_at   timestamptz NOT NULL,
	PRIMARY KEY (run_id, year)
)`

const (
	insertRunSQL = `INSERT INTO postprocess_runs (run_id, started_at, status, config)
VALUES ($1, $2, $3, $4)`

	upsertYearSQL = `INSERT INTO postprocess_years (run_id, year, events_path, cutflow_path, n_events, finished_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id, year) DO UPDATE
SET events_path = EXCLUDED.events_path,
    cutflow_path = EXCLUDED.cutflow_path,
    n_events = EXCLUDED.n_events,
    finished_at = EXCLUDED.finished_at`

	finishRunSQL = `UPDATE postprocess_runs SET status = $2, finished_at = $3 WHERE run_id = $1`
)

// PG is a domain.Ledger over a pg.Querier
type PG struct {
	q   pg.Querier
	now func() time.Time
}

var _ domain.Ledger = (*PG)(nil)

// New returns a ledger using q
func New(q pg.Querier) *PG {
	return &PG{q: q, now: time.Now}
}

// EnsureSchema creates the ledger tables if they are missing
func (l *PG) EnsureSchema(ctx context.Context) error {
	if _, err := l.q.Exec(ctx, schemaSQL); err != nil {
		return perr.FromPostgres(err, "create ledger tables")
	}
	return nil
}

// StartRun inserts the run row with its resolved configuration
func (l *PG) StartRun(ctx context.Context, runID string, cfg domain.RunConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "encode run config")
	}
	if _, err := l.q.Exec(ctx, insertRunSQL, runID, l.now().UTC(), domain.RunStatusRunning, raw); err != nil {
		if perr.IsDuplicateKey(err) {
			return perr.WithField(perr.FromPostgresf(err, "run %s already recorded", runID), "run_id")
		}
		return perr.FromPostgresf(err, "start run %s", runID)
	}
	return nil
}

// RecordYear stores where a finished year's artifacts landed
func (l *PG) RecordYear(ctx context.Context, runID string, res domain.YearResult) error {
	_, err := l.q.Exec(ctx, upsertYearSQL,
		runID, res.Year, res.Events.Path, res.Cutflow.Path, int64(res.NEvents), l.now().UTC())
	if err != nil {
		return perr.FromPostgresf(err, "record year %s", res.Year)
	}
	return nil
}

// FinishRun stamps the final status
func (l *PG) FinishRun(ctx context.Context, runID string, status string) error {
	n, err := l.q.Exec(ctx, finishRunSQL, runID, status, l.now().UTC())
	if err != nil {
		return perr.FromPostgresf(err, "finish run %s", runID)
	}
	if n == 0 {
		return perr.Storagef("finish run %s: no such run", runID)
	}
	return nil
}
