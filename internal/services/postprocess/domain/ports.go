package domain

import "context"

// Processor is the external analysis collaborator
type Processor interface {
	// ResolveTrainingKeys maps a BDT model id to the samples it was trained on
	ResolveTrainingKeys(ctx context.Context, bdtModel string) (TrainingKeys, error)

	// ProcessYear runs selection and scoring for one year
	ProcessYear(ctx context.Context, req ProcessRequest) (EventsTable, Cutflow, error)
}

// ArtifactStore persists per-year results under the output directory
type ArtifactStore interface {
	EnsureOutputDir() error
	Persist(year string, events EventsTable, cutflow Cutflow) (ArtifactRef, ArtifactRef, error)
}

// Mirror copies a persisted artifact to remote storage
type Mirror interface {
	Upload(ctx context.Context, ref ArtifactRef) error
}

// Ledger records run bookkeeping outside the output directory
type Ledger interface {
	StartRun(ctx context.Context, runID string, cfg RunConfig) error
	RecordYear(ctx context.Context, runID string, res YearResult) error
	FinishRun(ctx context.Context, runID string, status string) error
}

// Recorder receives job metrics
type Recorder interface {
	YearDone(res YearResult, cutflow Cutflow)
	YearFailed(year string)
}

// Run statuses recorded by the ledger
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)
