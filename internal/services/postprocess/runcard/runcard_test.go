package runcard

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	perr "hh4b/internal/platform/errors"
	kit "hh4b/internal/platform/testkit"
	"hh4b/internal/services/postprocess/domain"
)

func required(extra ...string) []string {
	return append([]string{"--output-dir", "/tmp/out", "--templates-tag", "25Jan01"}, extra...)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(required())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := domain.DefaultRunConfig()
	want.OutputDir = "/tmp/out"
	want.TemplatesTag = "25Jan01"
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("defaults mismatch:\n got %+v\nwant %+v", cfg, want)
	}
}

func TestParse_AllFlags(t *testing.T) {
	cfg, err := Parse(required(
		"--data-dir", "/data",
		"--mass-bins", "15",
		"--tag", "v2",
		"--years", "2023", "2022",
		"--training-years", "2022EE",
		"--mass", "H2Msd",
		"--bdt-model", "m1",
		"--bdt-config", "c1",
		"--txbb", "glopart-v2",
		"--txbb-wps", "0.9", "0.8",
		"--bdt-wps", "0.9", "0.7", "-0.1",
		"--method", "sideband",
		"--vbf-txbb-wp", "0.9",
		"--vbf-bdt-wp", "0.8",
		"--weight-ttbar-bdt", "2",
		"--sig-keys", "hh4b", "vbfhh4b",
		"--pt-first", "310",
		"--pt-second", "260",
		"--no-bdt-disc", "--bdt-roc", "--control-plots", "--fom-scan",
		"--no-fom-scan-bin1", "--no-fom-scan-bin2", "--fom-scan-vbf",
		"--no-templates", "--no-vbf", "--vbf-priority", "--no-blind",
	))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.DataDir != "/data" || cfg.MassBins != 15 || cfg.Tag != "v2" || cfg.Mass != "H2Msd" {
		t.Fatalf("scalars mismatch: %+v", cfg)
	}
	if !slices.Equal(cfg.Years, []string{"2023", "2022"}) {
		t.Fatalf("years must keep command-line order, got %v", cfg.Years)
	}
	if !slices.Equal(cfg.TrainingYears, []string{"2022EE"}) || !slices.Equal(cfg.SigKeys, []string{"hh4b", "vbfhh4b"}) {
		t.Fatalf("lists mismatch: %+v", cfg)
	}
	if cfg.TXbbWPs != [2]float64{0.9, 0.8} || cfg.BDTWPs != [3]float64{0.9, 0.7, -0.1} {
		t.Fatalf("working points mismatch: %v %v", cfg.TXbbWPs, cfg.BDTWPs)
	}
	if cfg.BDTModel != "m1" || cfg.BDTConfig != "c1" || cfg.TXbb != "glopart-v2" || cfg.Method != "sideband" {
		t.Fatalf("model/method mismatch: %+v", cfg)
	}
	if cfg.VBFTXbbWP != 0.9 || cfg.VBFBDTWP != 0.8 || cfg.WeightTTbarBDT != 2 || cfg.PtFirst != 310 || cfg.PtSecond != 260 {
		t.Fatalf("floats mismatch: %+v", cfg)
	}
	if cfg.BDTDisc || !cfg.BDTRoc || !cfg.ControlPlots || !cfg.FOMScan || cfg.FOMScanBin1 || cfg.FOMScanBin2 ||
		!cfg.FOMScanVBF || cfg.Templates || cfg.VBF || !cfg.VBFPriority || cfg.Blind {
		t.Fatalf("switches mismatch: %+v", cfg)
	}
}

func TestParse_SwitchLastWins(t *testing.T) {
	cfg, err := Parse(required("--no-blind", "--blind"))
	if err != nil || !cfg.Blind {
		t.Fatalf("--no-blind --blind should leave blind on: %v %v", cfg.Blind, err)
	}
	cfg, err = Parse(required("--blind", "--no-blind"))
	if err != nil || cfg.Blind {
		t.Fatalf("--blind --no-blind should turn blind off: %v %v", cfg.Blind, err)
	}
	cfg, err = Parse(required("--vbf=false"))
	if err != nil || cfg.VBF {
		t.Fatalf("--vbf=false should disable vbf")
	}
}

func TestParse_EmptyStringsAccepted(t *testing.T) {
	cfg, err := Parse(required("--data-dir", "", "--tag", "", "--bdt-model", "", "--bdt-config", ""))
	if err != nil {
		t.Fatalf("empty optional strings should parse: %v", err)
	}
	if cfg.DataDir != "" || cfg.Tag != "" || cfg.BDTModel != "" || cfg.BDTConfig != "" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParse_ConfigurationErrors(t *testing.T) {
	cases := []struct {
		name  string
		args  []string
		field string
	}{
		{"missing output-dir", []string{"--templates-tag", "t"}, "output-dir"},
		{"missing templates-tag", []string{"--output-dir", "/tmp/out"}, "templates-tag"},
		{"mass-bins", required("--mass-bins", "12"), "mass-bins"},
		{"method", required("--method", "fit"), "method"},
		{"txbb", required("--txbb", "pnet-v13"), "txbb"},
		{"mass", required("--mass", "H2Mass"), "mass"},
		{"unknown year", required("--years", "2022", "2018"), "years"},
		{"unknown training year", required("--training-years", "2016"), "training-years"},
		{"unknown sig key", required("--sig-keys", "ttbar"), "sig-keys"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.args)
			kit.MustCode(t, err, perr.ErrorCodeConfiguration)
			e, _ := perr.As(err)
			if e.Field() != c.field {
				t.Fatalf("field = %q, want %q (%v)", e.Field(), c.field, err)
			}
			if e.Op() != "configure" {
				t.Fatalf("op = %q", e.Op())
			}
		})
	}
}

func TestParse_ArityErrors(t *testing.T) {
	cases := [][]string{
		required("--txbb-wps", "0.9"),
		required("--txbb-wps", "0.9", "0.8", "0.7"),
		required("--bdt-wps", "0.9", "0.8"),
		required("--txbb-wps", "high", "low"),
		required("--years"),
		required("--mass-bins", "ten"),
		required("--bogus"),
		required("stray"),
	}
	for _, args := range cases {
		if _, err := Parse(args); !perr.IsCode(err, perr.ErrorCodeConfiguration) {
			t.Fatalf("Parse(%v) = %v, want configuration error", args, err)
		}
	}
}

func TestParse_RunCard(t *testing.T) {
	dir := t.TempDir()
	card := filepath.Join(dir, "run.yaml")
	body := `output-dir: /from/card
templates-tag: card-tag
years: [2022EE, 2023BPix]
txbb-wps: [0.95, 0.8]
blind: false
mass-bins: 20
`
	if err := os.WriteFile(card, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse([]string{"--config", card, "--mass-bins", "15"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.OutputDir != "/from/card" || cfg.TemplatesTag != "card-tag" || cfg.Blind {
		t.Fatalf("card values not applied: %+v", cfg)
	}
	if !slices.Equal(cfg.Years, []string{"2022EE", "2023BPix"}) || cfg.TXbbWPs != [2]float64{0.95, 0.8} {
		t.Fatalf("card lists not applied: %+v", cfg)
	}
	if cfg.MassBins != 15 {
		t.Fatalf("flags must override the card, mass-bins = %d", cfg.MassBins)
	}
	if cfg.Method != domain.MethodABCD {
		t.Fatalf("keys absent from the card keep defaults")
	}
}

func TestParse_RunCardErrors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	_ = os.WriteFile(unknown, []byte("output-dir: /x\nmass-bin: 10\n"), 0o600)
	badArity := filepath.Join(dir, "arity.yaml")
	_ = os.WriteFile(badArity, []byte("bdt-wps: [0.9]\n"), 0o600)
	empty := filepath.Join(dir, "empty.yaml")
	_ = os.WriteFile(empty, nil, 0o600)

	for _, p := range []string{unknown, badArity, filepath.Join(dir, "missing.yaml")} {
		_, err := Parse(required("--config=" + p))
		kit.MustCode(t, err, perr.ErrorCodeConfiguration)
	}
	if _, err := Parse(required("--config", empty)); err != nil {
		t.Fatalf("empty card should be accepted: %v", err)
	}
}

func TestNormalizeArgs(t *testing.T) {
	cases := []struct {
		in, want []string
	}{
		{
			[]string{"--years", "2022", "2023", "--no-blind"},
			[]string{"--years=2022,2023", "--no-blind"},
		},
		{
			[]string{"--bdt-wps", "0.9", "-0.5", "1e-3", "--tag", "x"},
			[]string{"--bdt-wps=0.9,-0.5,1e-3", "--tag", "x"},
		},
		{
			[]string{"--years=2022", "--sig-keys", "hh4b"},
			[]string{"--years=2022", "--sig-keys=hh4b"},
		},
		{
			[]string{"--years", "--blind"},
			[]string{"--years", "--blind"},
		},
		{
			[]string{"--tag", "a", "--", "--years", "2022"},
			[]string{"--tag", "a", "--", "--years", "2022"},
		},
	}
	for _, c := range cases {
		if got := NormalizeArgs(c.in); !slices.Equal(got, c.want) {
			t.Fatalf("NormalizeArgs(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCardPath(t *testing.T) {
	if CardPath([]string{"--tag", "x"}) != "" {
		t.Fatalf("no card expected")
	}
	if CardPath([]string{"--config", "a.yaml"}) != "a.yaml" || CardPath([]string{"--config=b.yaml"}) != "b.yaml" {
		t.Fatalf("CardPath forms mismatch")
	}
	if CardPath([]string{"--", "--config", "c.yaml"}) != "" {
		t.Fatalf("CardPath must stop at --")
	}
}
