// Package domain holds the run configuration, the data contracts exchanged with
// the processing collaborator, and the ports the orchestrator depends on
package domain

import (
	"time"
)

// Mass variable used to build templates
const (
	MassH2Msd      = "H2Msd"
	MassH2PNetMass = "H2PNetMass"
)

// Background-estimation methods
const (
	MethodABCD     = "abcd"
	MethodSideband = "sideband"
)

// TXbb tagger versions; empty selects the collaborator's default
const (
	TXbbDefault    = ""
	TXbbPNetLegacy = "pnet-legacy"
	TXbbPNetV12    = "pnet-v12"
	TXbbGloPartV2  = "glopart-v2"
)

// RunConfig is the validated configuration of one invocation.
// It is built once at startup and passed by value; nothing mutates it afterwards.
// flag/yaml names match the CLI, json names match the collaborator's argument names.
type RunConfig struct {
	OutputDir     string   `flag:"output-dir" yaml:"output-dir" json:"output_dir" validate:"required"`
	TemplatesTag  string   `flag:"templates-tag" yaml:"templates-tag" json:"templates_tag" validate:"required"`
	DataDir       string   `flag:"data-dir" yaml:"data-dir" json:"data_dir"`
	MassBins      int      `flag:"mass-bins" yaml:"mass-bins" json:"mass_bins" validate:"oneof=10 15 20"`
	Tag           string   `flag:"tag" yaml:"tag" json:"tag"`
	Years         []string `flag:"years" yaml:"years" json:"years" validate:"min=1,dive,year"`
	TrainingYears []string `flag:"training-years" yaml:"training-years" json:"training_years,omitempty" validate:"omitempty,dive,year"`
	Mass          string   `flag:"mass" yaml:"mass" json:"mass" validate:"oneof=H2Msd H2PNetMass"`
	BDTModel      string   `flag:"bdt-model" yaml:"bdt-model" json:"bdt_model"`
	BDTConfig     string   `flag:"bdt-config" yaml:"bdt-config" json:"bdt_config"`
	TXbb          string   `flag:"txbb" yaml:"txbb" json:"txbb" validate:"omitempty,oneof=pnet-legacy pnet-v12 glopart-v2"`

	// TXbbWPs holds the Bin 1 and Bin 2 tagger working points
	TXbbWPs [2]float64 `flag:"txbb-wps" yaml:"txbb-wps" json:"txbb_wps"`
	// BDTWPs holds the Bin 1, Bin 2 and Fail BDT working points
	BDTWPs [3]float64 `flag:"bdt-wps" yaml:"bdt-wps" json:"bdt_wps"`

	Method         string   `flag:"method" yaml:"method" json:"method" validate:"oneof=abcd sideband"`
	VBFTXbbWP      float64  `flag:"vbf-txbb-wp" yaml:"vbf-txbb-wp" json:"vbf_txbb_wp"`
	VBFBDTWP       float64  `flag:"vbf-bdt-wp" yaml:"vbf-bdt-wp" json:"vbf_bdt_wp"`
	WeightTTbarBDT float64  `flag:"weight-ttbar-bdt" yaml:"weight-ttbar-bdt" json:"weight_ttbar_bdt"`
	SigKeys        []string `flag:"sig-keys" yaml:"sig-keys" json:"sig_keys" validate:"min=1,dive,sigkey"`
	PtFirst        float64  `flag:"pt-first" yaml:"pt-first" json:"pt_first"`
	PtSecond       float64  `flag:"pt-second" yaml:"pt-second" json:"pt_second"`

	BDTDisc      bool `flag:"bdt-disc" yaml:"bdt-disc" json:"bdt_disc"`
	BDTRoc       bool `flag:"bdt-roc" yaml:"bdt-roc" json:"bdt_roc"`
	ControlPlots bool `flag:"control-plots" yaml:"control-plots" json:"control_plots"`
	FOMScan      bool `flag:"fom-scan" yaml:"fom-scan" json:"fom_scan"`
	FOMScanBin1  bool `flag:"fom-scan-bin1" yaml:"fom-scan-bin1" json:"fom_scan_bin1"`
	FOMScanBin2  bool `flag:"fom-scan-bin2" yaml:"fom-scan-bin2" json:"fom_scan_bin2"`
	FOMScanVBF   bool `flag:"fom-scan-vbf" yaml:"fom-scan-vbf" json:"fom_scan_vbf"`
	Templates    bool `flag:"templates" yaml:"templates" json:"templates"`
	VBF          bool `flag:"vbf" yaml:"vbf" json:"vbf"`
	VBFPriority  bool `flag:"vbf-priority" yaml:"vbf-priority" json:"vbf_priority"`
	Blind        bool `flag:"blind" yaml:"blind" json:"blind"`
}

// MassWindow is a closed interval in GeV
type MassWindow struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Pair renders the window as the [low, high] pair the collaborator expects
func (w MassWindow) Pair() [2]float64 { return [2]float64{w.Low, w.High} }

// TrainingKeys identifies the samples a BDT model was trained on; opaque to the orchestrator
type TrainingKeys struct {
	Model string   `json:"model"`
	Keys  []string `json:"keys"`
}

// Schema tags stamped on serialized contracts
const (
	EventsSchemaV1  = "hh4b.events.v1"
	CutflowSchemaV1 = "hh4b.cutflow.v1"
)

// Column is one named event-level quantity
type Column struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// EventsTable is the processed event table for one year.
// The orchestrator never interprets the columns; it only stores them.
type EventsTable struct {
	Schema  string    `json:"schema"`
	Year    string    `json:"year"`
	Columns []Column  `json:"columns"`
	Weights []float64 `json:"weights,omitempty"`
}

// NumEvents returns the row count implied by the first column (or the weights)
func (t EventsTable) NumEvents() int {
	if len(t.Columns) > 0 {
		return len(t.Columns[0].Values)
	}
	return len(t.Weights)
}

// CutStage is the (weighted) event count surviving one selection step
type CutStage struct {
	Name   string  `json:"name"`
	Events float64 `json:"events"`
}

// Cutflow is the ordered selection record for one year
type Cutflow struct {
	Schema string     `json:"schema"`
	Year   string     `json:"year"`
	Stages []CutStage `json:"stages"`
}

// Final returns the last stage, if any
func (c Cutflow) Final() (CutStage, bool) {
	if len(c.Stages) == 0 {
		return CutStage{}, false
	}
	return c.Stages[len(c.Stages)-1], true
}

// ProcessRequest is everything the collaborator needs for one year
type ProcessRequest struct {
	Config       RunConfig
	Year         string
	TrainingKeys TrainingKeys
	ControlPlots bool
	PlotDir      string
	MassWindow   MassWindow
}

// Artifact kinds written per year
const (
	KindEvents  = "processed_events"
	KindCutflow = "cutflow"
)

// ArtifactRef describes one file written for a year
type ArtifactRef struct {
	Kind  string
	Year  string
	Path  string
	Bytes int64
}

// YearResult summarizes one completed year
type YearResult struct {
	Year     string
	Events   ArtifactRef
	Cutflow  ArtifactRef
	NEvents  int
	// Selected is the last cutflow stage; zero when the cutflow is empty
	Selected CutStage
	Duration time.Duration
}

// RunSummary summarizes a whole invocation
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Years     []YearResult
	DryRun    bool
}
