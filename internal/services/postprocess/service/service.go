// Package service runs the per-year processing loop
package service

import (
	"context"
	"strings"
	"time"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/logger"
	"hh4b/internal/services/postprocess/domain"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LedgerTimeout bounds each bookkeeping call so a slow database cannot stall the run
const LedgerTimeout = 10 * time.Second

// Service drives one invocation: ensure the output directory, then process,
// persist and mirror each year in order, stopping at the first failure
type Service struct {
	Proc  domain.Processor
	Store domain.ArtifactStore

	// optional
	Ledger   domain.Ledger
	Mirror   domain.Mirror
	Recorder domain.Recorder

	Log    logger.Logger
	DryRun bool

	now      func() time.Time
	newRunID func() string
	counts   *message.Printer
}

// New constructs the service
func New(proc domain.Processor, store domain.ArtifactStore, log logger.Logger) *Service {
	if proc == nil {
		panic("postprocess.Service requires a non nil Processor")
	}
	if store == nil {
		panic("postprocess.Service requires a non nil ArtifactStore")
	}
	return &Service{
		Proc:     proc,
		Store:    store,
		Log:      logger.Named(log, "postprocess"),
		now:      time.Now,
		newRunID: uuid.NewString,
		counts:   message.NewPrinter(language.English),
	}
}

// WithLedger wires run bookkeeping
func (s *Service) WithLedger(l domain.Ledger) *Service { s.Ledger = l; return s }

// WithMirror wires remote copies of every artifact
func (s *Service) WithMirror(m domain.Mirror) *Service { s.Mirror = m; return s }

// WithRecorder wires job metrics
func (s *Service) WithRecorder(r domain.Recorder) *Service { s.Recorder = r; return s }

// WithDryRun makes Run stop after logging the plan
func (s *Service) WithDryRun(on bool) *Service { s.DryRun = on; return s }

// Run processes cfg.Years in the order given. Years finished before a failure keep
// their files; nothing is written for the failing year's successors.
func (s *Service) Run(ctx context.Context, cfg domain.RunConfig) (domain.RunSummary, error) {
	sum := domain.RunSummary{
		RunID:     s.newRunID(),
		StartedAt: s.now(),
		DryRun:    s.DryRun,
	}
	log := logger.WithRun(s.Log, sum.RunID)

	log.Info().
		Str("output_dir", cfg.OutputDir).
		Str("templates_tag", cfg.TemplatesTag).
		Strs("years", cfg.Years).
		Str("bdt_model", cfg.BDTModel).
		Bool("dry_run", s.DryRun).
		Msg("starting run")

	if err := s.Store.EnsureOutputDir(); err != nil {
		return sum, perr.WithOp(err, "ensure-output-dir")
	}

	if s.DryRun {
		for i, y := range cfg.Years {
			log.Info().Int("step", i+1).Str("year", y).Msg("would process year")
		}
		return sum, nil
	}

	s.ledger(ctx, log, "start run", func(ctx context.Context, l domain.Ledger) error {
		return l.StartRun(ctx, sum.RunID, cfg)
	})

	for _, year := range cfg.Years {
		if err := ctx.Err(); err != nil {
			return sum, s.fail(ctx, log, sum.RunID, year, perr.Wrapf(err, perr.ErrorCodeCanceled, "run interrupted before year %s", year))
		}
		res, err := s.year(ctx, log, sum.RunID, cfg, year)
		if err != nil {
			return sum, s.fail(ctx, log, sum.RunID, year, err)
		}
		sum.Years = append(sum.Years, res)
	}

	s.ledger(ctx, log, "finish run", func(ctx context.Context, l domain.Ledger) error {
		return l.FinishRun(ctx, sum.RunID, domain.RunStatusSucceeded)
	})
	log.Info().Int("years", len(sum.Years)).Dur("elapsed", s.now().Sub(sum.StartedAt)).Msg("run finished")
	return sum, nil
}

// RunYear resolves the BDT training keys and hands one year to the collaborator
func (s *Service) RunYear(ctx context.Context, cfg domain.RunConfig, year string) (domain.EventsTable, domain.Cutflow, error) {
	keys, err := s.Proc.ResolveTrainingKeys(ctx, cfg.BDTModel)
	if err != nil {
		return domain.EventsTable{}, domain.Cutflow{}, collaboratorErr(err, "resolve training keys for %s", cfg.BDTModel)
	}
	events, cutflow, err := s.Proc.ProcessYear(ctx, domain.ProcessRequest{
		Config:       cfg,
		Year:         year,
		TrainingKeys: keys,
		ControlPlots: cfg.ControlPlots,
		PlotDir:      cfg.OutputDir,
		MassWindow:   domain.SignalMassWindow,
	})
	if err != nil {
		return domain.EventsTable{}, domain.Cutflow{}, collaboratorErr(err, "process year %s", year)
	}
	return events, cutflow, nil
}

func (s *Service) year(ctx context.Context, log logger.Logger, runID string, cfg domain.RunConfig, year string) (domain.YearResult, error) {
	start := s.now()
	log.Info().Str("year", year).Msg("processing year")

	events, cutflow, err := s.RunYear(ctx, cfg, year)
	if err != nil {
		return domain.YearResult{}, err
	}

	evRef, cfRef, err := s.Store.Persist(year, events, cutflow)
	if err != nil {
		return domain.YearResult{}, perr.WithOp(err, "persist")
	}

	if s.Mirror != nil {
		for _, ref := range []domain.ArtifactRef{evRef, cfRef} {
			if err := s.Mirror.Upload(ctx, ref); err != nil {
				return domain.YearResult{}, err
			}
		}
	}

	res := domain.YearResult{
		Year:     year,
		Events:   evRef,
		Cutflow:  cfRef,
		NEvents:  events.NumEvents(),
		Duration: s.now().Sub(start),
	}
	if last, ok := cutflow.Final(); ok {
		res.Selected = last
	}

	s.ledger(ctx, log, "record year", func(ctx context.Context, l domain.Ledger) error {
		return l.RecordYear(ctx, runID, res)
	})
	if s.Recorder != nil {
		s.Recorder.YearDone(res, cutflow)
	}

	log.Info().
		Str("year", year).
		Int("events", res.NEvents).
		Str("cutflow", s.cutflowLine(cutflow)).
		Dur("elapsed", res.Duration).
		Msg("finished year")
	return res, nil
}

func (s *Service) fail(ctx context.Context, log logger.Logger, runID, year string, err error) error {
	if s.Recorder != nil {
		s.Recorder.YearFailed(year)
	}
	s.ledger(ctx, log, "finish run", func(ctx context.Context, l domain.Ledger) error {
		return l.FinishRun(ctx, runID, domain.RunStatusFailed)
	})
	log.Error().Err(err).Str("year", year).Str("code", perr.CodeOf(err).String()).Msg("run aborted")
	return err
}

// ledger runs one bookkeeping write; failures are logged and never abort the run.
// The write outlives cancellation so an interrupted run is still marked failed.
func (s *Service) ledger(ctx context.Context, log logger.Logger, what string, fn func(context.Context, domain.Ledger) error) {
	if s.Ledger == nil {
		return
	}
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LedgerTimeout)
	defer cancel()
	if err := fn(lctx, s.Ledger); err != nil {
		log.Warn().Err(err).Msg("ledger: " + what + " failed")
	}
}

func (s *Service) cutflowLine(cf domain.Cutflow) string {
	parts := make([]string, 0, len(cf.Stages))
	for _, st := range cf.Stages {
		parts = append(parts, s.counts.Sprintf("%s=%.1f", st.Name, st.Events))
	}
	return strings.Join(parts, " ")
}

func collaboratorErr(err error, format string, a ...any) error {
	if perr.Is(err, context.Canceled) || perr.Is(err, context.DeadlineExceeded) || perr.IsCode(err, perr.ErrorCodeCanceled) {
		return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeCanceled, format, a...), "run-year")
	}
	return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeCollaborator, format, a...), "run-year")
}
