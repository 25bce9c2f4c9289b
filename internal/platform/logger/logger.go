// Package logger builds zerolog loggers with opinionated defaults.
// There is no process-wide root: the binary constructs one logger at
// startup and hands it down explicitly.
package logger

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"hh4b/internal/platform/config"

	"github.com/rs/zerolog"
)

// Options configures the logger
type Options struct {
	Level        string
	Format       string
	Service      string
	Component    string
	Writer       io.Writer
	WithCaller   bool
	StaticFields map[string]string
}

// FromEnv builds Options from LOG_* variables
func FromEnv(c config.Conf) Options {
	lc := c.Prefix("LOG_")
	return Options{
		Level:      strings.ToLower(lc.MayString("LEVEL", "info")),
		Format:     lc.MayEnum("FORMAT", "console", "console", "json"),
		Service:    lc.MayString("SERVICE", "hh4b-postprocess"),
		Component:  lc.MayString("COMPONENT", ""),
		WithCaller: lc.MayBool("CALLER", false),
	}
}

// Logger is the project-wide logging type - today it's just a zerolog.Logger, but it can be swapped later
type Logger = zerolog.Logger

// New builds a logger from opt. Output defaults to stderr so stdout stays clean.
func New(opt Options) Logger {
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opt.Writer != nil}
	}

	ctx := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()

	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		ctx = ctx.Str("go_version", bi.GoVersion)
	}
	if opt.Service != "" {
		ctx = ctx.Str("service", opt.Service)
	}
	if opt.Component != "" {
		ctx = ctx.Str("component", opt.Component)
	}
	for k, v := range opt.StaticFields {
		ctx = ctx.Str(k, v)
	}

	log := ctx.Logger()
	if opt.WithCaller {
		log = log.With().Caller().Logger()
	}
	return log
}

// Nop returns a disabled logger, handy for tests and optional wiring
func Nop() Logger { return zerolog.Nop() }

// parseLevel supports string-only levels
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// Named returns a child logger with a component field
func Named(l Logger, component string) Logger {
	if component == "" {
		return l
	}
	return l.With().Str("component", component).Logger()
}

// WithRun returns a child logger stamped with the run id
func WithRun(l Logger, runID string) Logger {
	if runID == "" {
		return l
	}
	return l.With().Str("run_id", runID).Logger()
}
