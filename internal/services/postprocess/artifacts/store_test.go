package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/logger"
	kit "hh4b/internal/platform/testkit"
	"hh4b/internal/services/postprocess/domain"
)

func sampleEvents(year string) domain.EventsTable {
	return domain.EventsTable{
		Schema: domain.EventsSchemaV1,
		Year:   year,
		Columns: []domain.Column{
			{Name: "H2PNetMass", Values: []float64{118.5, 124.9, 131.2}},
			{Name: "bdt_score", Values: []float64{0.991, 0.42, 0.07}},
		},
		Weights: []float64{0.8, 1.1, 0.95},
	}
}

func sampleCutflow(year string) domain.Cutflow {
	return domain.Cutflow{
		Schema: domain.CutflowSchemaV1,
		Year:   year,
		Stages: []domain.CutStage{{Name: "all", Events: 100}, {Name: "selected", Events: 5}},
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(domain.KindEvents, "2022EE"); got != "processed_events_2022EE.gob.zst" {
		t.Fatalf("FileName = %q", got)
	}
}

func TestEnsureOutputDir_CreatesParentsAndIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "out")
	if err := EnsureOutputDir(dir); err != nil {
		t.Fatalf("first call: %v", err)
	}
	fi := kit.MustExist(t, dir)
	if !fi.IsDir() {
		t.Fatalf("%s is not a directory", dir)
	}
	marker := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(marker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := EnsureOutputDir(dir); err != nil {
		t.Fatalf("second call: %v", err)
	}
	kit.MustExist(t, marker)
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("second call changed directory contents: %v", entries)
	}
}

func TestEnsureOutputDir_FileInTheWay(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := EnsureOutputDir(p)
	kit.MustCode(t, err, perr.ErrorCodeStorage)
	if e, _ := perr.As(err); e.Field() != "output-dir" {
		t.Fatalf("field = %q", e.Field())
	}
}

func TestEnsureOutputDir_MkdirFailure(t *testing.T) {
	kit.Serial(t)
	kit.Swap(t, &mkdirAll, func(string, os.FileMode) error { return os.ErrPermission })
	err := EnsureOutputDir(filepath.Join(t.TempDir(), "denied"))
	kit.MustCode(t, err, perr.ErrorCodeStorage)
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestPersist_RoundTrip(t *testing.T) {
	s := New(t.TempDir(), logger.Nop())
	ev, cf := sampleEvents("2022"), sampleCutflow("2022")

	evRef, cfRef, err := s.Persist("2022", ev, cf)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if evRef.Path != s.Path(domain.KindEvents, "2022") || cfRef.Path != s.Path(domain.KindCutflow, "2022") {
		t.Fatalf("unexpected paths %s %s", evRef.Path, cfRef.Path)
	}
	if evRef.Bytes <= 0 || cfRef.Bytes <= 0 {
		t.Fatalf("sizes not recorded: %+v %+v", evRef, cfRef)
	}

	gotEv, err := LoadEvents(evRef.Path)
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if !reflect.DeepEqual(gotEv, ev) {
		t.Fatalf("events round trip mismatch:\n got %+v\nwant %+v", gotEv, ev)
	}
	gotCf, err := LoadCutflow(cfRef.Path)
	if err != nil {
		t.Fatalf("LoadCutflow: %v", err)
	}
	if !reflect.DeepEqual(gotCf, cf) {
		t.Fatalf("cutflow round trip mismatch:\n got %+v\nwant %+v", gotCf, cf)
	}
}

func TestPersist_RoundTripZeroEvents(t *testing.T) {
	s := New(t.TempDir(), logger.Nop())

	cases := []struct {
		name string
		ev   domain.EventsTable
		cf   domain.Cutflow
	}{
		{
			name: "empty slices",
			ev: domain.EventsTable{
				Schema:  domain.EventsSchemaV1,
				Year:    "2022",
				Columns: []domain.Column{{Name: "bdt_score", Values: []float64{}}},
				Weights: []float64{},
			},
			cf: domain.Cutflow{Schema: domain.CutflowSchemaV1, Year: "2022", Stages: []domain.CutStage{}},
		},
		{
			name: "no columns",
			ev:   domain.EventsTable{Schema: domain.EventsSchemaV1, Year: "2022", Columns: []domain.Column{}},
			cf:   domain.Cutflow{Schema: domain.CutflowSchemaV1, Year: "2022"},
		},
		{
			name: "nil slices",
			ev: domain.EventsTable{
				Schema:  domain.EventsSchemaV1,
				Year:    "2022",
				Columns: []domain.Column{{Name: "bdt_score"}},
			},
			cf: domain.Cutflow{Schema: domain.CutflowSchemaV1, Year: "2022"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			evRef, cfRef, err := s.Persist("2022", tc.ev, tc.cf)
			if err != nil {
				t.Fatalf("Persist: %v", err)
			}
			gotEv, err := LoadEvents(evRef.Path)
			if err != nil {
				t.Fatalf("LoadEvents: %v", err)
			}
			if !reflect.DeepEqual(gotEv, tc.ev) {
				t.Fatalf("events round trip mismatch:\n got %#v\nwant %#v", gotEv, tc.ev)
			}
			gotCf, err := LoadCutflow(cfRef.Path)
			if err != nil {
				t.Fatalf("LoadCutflow: %v", err)
			}
			if !reflect.DeepEqual(gotCf, tc.cf) {
				t.Fatalf("cutflow round trip mismatch:\n got %#v\nwant %#v", gotCf, tc.cf)
			}
			if gotEv.NumEvents() != 0 {
				t.Fatalf("NumEvents = %d", gotEv.NumEvents())
			}
		})
	}
}

func TestPersist_OverwritesExisting(t *testing.T) {
	s := New(t.TempDir(), logger.Nop())
	if _, _, err := s.Persist("2023", sampleEvents("2023"), sampleCutflow("2023")); err != nil {
		t.Fatal(err)
	}
	second := domain.Cutflow{Schema: domain.CutflowSchemaV1, Year: "2023", Stages: []domain.CutStage{{Name: "all", Events: 7}}}
	if _, _, err := s.Persist("2023", sampleEvents("2023"), second); err != nil {
		t.Fatal(err)
	}
	got, err := LoadCutflow(s.Path(domain.KindCutflow, "2023"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Fatalf("expected overwritten cutflow, got %+v", got)
	}
}

func TestLoad_RejectsWrongKind(t *testing.T) {
	s := New(t.TempDir(), logger.Nop())
	evRef, _, err := s.Persist("2022", sampleEvents("2022"), sampleCutflow("2022"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = LoadCutflow(evRef.Path)
	kit.MustCode(t, err, perr.ErrorCodeStorage)
	kit.MustContain(t, err.Error(), `artifact kind "processed_events"`)
}

func TestLoad_Garbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "junk"+Ext)
	if err := os.WriteFile(p, []byte("not zstd"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadEvents(p)
	kit.MustCode(t, err, perr.ErrorCodeStorage)

	_, err = LoadEvents(filepath.Join(t.TempDir(), "missing"+Ext))
	kit.MustCode(t, err, perr.ErrorCodeStorage)
}

func TestPersist_CreateFailure(t *testing.T) {
	kit.Serial(t)
	dir := t.TempDir()
	calls := 0
	kit.Swap(t, &createFile, func(name string) (*os.File, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("no space left on device")
		}
		return os.Create(name)
	})

	s := New(dir, logger.Nop())
	evRef, _, err := s.Persist("2022", sampleEvents("2022"), sampleCutflow("2022"))
	kit.MustCode(t, err, perr.ErrorCodeStorage)
	kit.MustContain(t, err.Error(), "no space left on device")

	// events were written before the failure and are left in place
	kit.MustExist(t, evRef.Path)
	kit.MustNotExist(t, s.Path(domain.KindCutflow, "2022"))
}
