package pg

import (
	"context"
	"strings"

	"hh4b/internal/platform/logger"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives an event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs statements at debug, slow or failed ones at warn
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: logger.Named(root, "pg")}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Debug()
	if ev.Slow || ev.Err != nil {
		evt = z.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}

// compact folds runs of whitespace into single spaces and trims the ends
func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
