// Package collab reaches the external analysis collaborator (PostProcess) by running
// a bridge command that speaks one JSON request / one JSON response over stdin/stdout
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/logger"
	"hh4b/internal/services/postprocess/domain"
)

// DefaultCommand runs the Python bridge module shipped with the analysis package
var DefaultCommand = []string{"python3", "-m", "HH4b.postprocessing.bridge"}

// Protocol operations
const (
	OpTrainingKeys = "training-keys"
	OpProcess      = "process"
)

const stderrTailBytes = 4 << 10

// Request is the single JSON document written to the bridge's stdin
type Request struct {
	Op           string               `json:"op"`
	BDTModel     string               `json:"bdt_model,omitempty"`
	Config       *domain.RunConfig    `json:"config,omitempty"`
	Year         string               `json:"year,omitempty"`
	TrainingKeys *domain.TrainingKeys `json:"training_keys,omitempty"`
	ControlPlots bool                 `json:"control_plots,omitempty"`
	PlotDir      string               `json:"plot_dir,omitempty"`
	MassWindow   *[2]float64          `json:"mass_window,omitempty"`
}

// Response is the single JSON document the bridge prints on stdout
type Response struct {
	Error        string               `json:"error,omitempty"`
	TrainingKeys *domain.TrainingKeys `json:"training_keys,omitempty"`
	Events       *domain.EventsTable  `json:"events,omitempty"`
	Cutflow      *domain.Cutflow      `json:"cutflow,omitempty"`
}

// Options configures the bridge
type Options struct {
	Command []string
	Dir     string
	Env     []string  // appended to the inherited environment
	Stderr  io.Writer // where bridge stderr is streamed; nil discards (the tail is kept either way)
}

// Exec is a domain.Processor backed by a subprocess per call
type Exec struct {
	opt Options
	log logger.Logger
}

var _ domain.Processor = (*Exec)(nil)

// NewExec returns an Exec; an empty command falls back to DefaultCommand
func NewExec(opt Options, log logger.Logger) *Exec {
	if len(opt.Command) == 0 {
		opt.Command = DefaultCommand
	}
	return &Exec{opt: opt, log: logger.Named(log, "collab")}
}

// ResolveTrainingKeys asks the bridge which samples the model was trained on
func (e *Exec) ResolveTrainingKeys(ctx context.Context, bdtModel string) (domain.TrainingKeys, error) {
	resp, err := e.call(ctx, Request{Op: OpTrainingKeys, BDTModel: bdtModel})
	if err != nil {
		return domain.TrainingKeys{}, err
	}
	if resp.TrainingKeys == nil {
		return domain.TrainingKeys{}, perr.Collaboratorf("training-keys response for %s has no training_keys", bdtModel)
	}
	keys := *resp.TrainingKeys
	if keys.Model == "" {
		keys.Model = bdtModel
	}
	return keys, nil
}

// ProcessYear hands one year to the bridge and returns its typed results
func (e *Exec) ProcessYear(ctx context.Context, req domain.ProcessRequest) (domain.EventsTable, domain.Cutflow, error) {
	cfg := req.Config
	keys := req.TrainingKeys
	window := req.MassWindow.Pair()
	resp, err := e.call(ctx, Request{
		Op:           OpProcess,
		Config:       &cfg,
		Year:         req.Year,
		TrainingKeys: &keys,
		ControlPlots: req.ControlPlots,
		PlotDir:      req.PlotDir,
		MassWindow:   &window,
	})
	if err != nil {
		return domain.EventsTable{}, domain.Cutflow{}, err
	}
	if resp.Events == nil || resp.Cutflow == nil {
		return domain.EventsTable{}, domain.Cutflow{}, perr.Collaboratorf("process response for %s is missing events or cutflow", req.Year)
	}

	ev, cf := *resp.Events, *resp.Cutflow
	if ev.Schema == "" {
		ev.Schema = domain.EventsSchemaV1
	}
	if ev.Year == "" {
		ev.Year = req.Year
	}
	if cf.Schema == "" {
		cf.Schema = domain.CutflowSchemaV1
	}
	if cf.Year == "" {
		cf.Year = req.Year
	}
	return ev, cf, nil
}

func (e *Exec) call(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, perr.Wrapf(err, perr.ErrorCodeCollaborator, "encode %s request", req.Op)
	}

	cmd := exec.CommandContext(ctx, e.opt.Command[0], e.opt.Command[1:]...)
	cmd.Dir = e.opt.Dir
	cmd.Env = append(os.Environ(), e.opt.Env...)
	cmd.Stdin = bytes.NewReader(body)
	configureProcess(cmd)

	var stdout bytes.Buffer
	tail := &tailBuffer{max: stderrTailBytes}
	cmd.Stdout = &stdout
	if e.opt.Stderr != nil {
		cmd.Stderr = io.MultiWriter(e.opt.Stderr, tail)
	} else {
		cmd.Stderr = tail
	}

	start := time.Now()
	e.log.Debug().Str("op", req.Op).Str("year", req.Year).Strs("cmd", e.opt.Command).Msg("calling processor")
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		if ctx.Err() != nil {
			return Response{}, perr.Wrapf(ctx.Err(), perr.ErrorCodeCanceled, "processor %s interrupted", req.Op)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return Response{}, perr.Wrapf(runErr, perr.ErrorCodeCollaborator,
				"processor %s exited with status %d: %s", req.Op, exitErr.ExitCode(), tail.String())
		}
		return Response{}, perr.Wrapf(runErr, perr.ErrorCodeCollaborator, "start processor %s", strings.Join(e.opt.Command, " "))
	}

	var resp Response
	dec := json.NewDecoder(&stdout)
	if err := dec.Decode(&resp); err != nil {
		return Response{}, perr.Wrapf(err, perr.ErrorCodeCollaborator, "decode %s response", req.Op)
	}
	if resp.Error != "" {
		return Response{}, perr.Collaboratorf("processor %s: %s", req.Op, resp.Error)
	}

	e.log.Debug().Str("op", req.Op).Str("year", req.Year).Dur("elapsed", elapsed).Msg("processor returned")
	return resp, nil
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return strings.TrimSpace(string(t.buf)) }
