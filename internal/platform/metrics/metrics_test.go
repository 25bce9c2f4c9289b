package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/testkit"
	"hh4b/internal/services/postprocess/domain"
)

func TestJobWritesTextfile(t *testing.T) {
	j := NewJob()
	j.YearDone(domain.YearResult{
		Year:     "2022",
		Events:   domain.ArtifactRef{Kind: domain.KindEvents, Year: "2022", Bytes: 2048},
		Cutflow:  domain.ArtifactRef{Kind: domain.KindCutflow, Year: "2022", Bytes: 128},
		NEvents:  5,
		Duration: 1500 * time.Millisecond,
	}, domain.Cutflow{Stages: []domain.CutStage{{Name: "all", Events: 100}, {Name: "selected", Events: 5}}})
	j.YearFailed("2022EE")

	path := filepath.Join(t.TempDir(), "hh4b.prom")
	if err := j.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)

	testkit.MustContain(t, out, `hh4b_postprocess_years_total{status="ok"} 1`)
	testkit.MustContain(t, out, `hh4b_postprocess_years_total{status="failed"} 1`)
	testkit.MustContain(t, out, `hh4b_postprocess_artifact_bytes{kind="processed_events",year="2022"} 2048`)
	testkit.MustContain(t, out, `hh4b_postprocess_artifact_bytes{kind="cutflow",year="2022"} 128`)
	testkit.MustContain(t, out, `hh4b_postprocess_year_duration_seconds{year="2022"} 1.5`)
	testkit.MustContain(t, out, `hh4b_postprocess_cutflow_events{stage="selected",year="2022"} 5`)
}

func TestZeroOutcomesExported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hh4b.prom")
	if err := NewJob().WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	raw, _ := os.ReadFile(path)
	testkit.MustContain(t, string(raw), `hh4b_postprocess_years_total{status="failed"} 0`)
}

func TestWriteFileBadDir(t *testing.T) {
	err := NewJob().WriteFile(filepath.Join(t.TempDir(), "missing", "hh4b.prom"))
	testkit.MustCode(t, err, perr.ErrorCodeStorage)
}
