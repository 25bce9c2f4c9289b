package domain

import "slices"

// Years lists the Run 3 data-taking periods the pipeline knows about, in processing order
var Years = []string{"2022", "2022EE", "2023", "2023BPix"}

// SigKeysGGF are the gluon-fusion signal samples
var SigKeysGGF = []string{"hh4b", "hh4b-kl0", "hh4b-kl2p45", "hh4b-kl5"}

// SigKeysVBF are the vector-boson-fusion signal samples
var SigKeysVBF = []string{"vbfhh4b", "vbfhh4b-k2v0"}

// SigKeys returns every known signal key, ggF first
func SigKeys() []string { return slices.Concat(SigKeysGGF, SigKeysVBF) }

// IsKnownYear reports whether y is a known data-taking period
func IsKnownYear(y string) bool { return slices.Contains(Years, y) }

// IsKnownSigKey reports whether k is a known signal sample
func IsKnownSigKey(k string) bool {
	return slices.Contains(SigKeysGGF, k) || slices.Contains(SigKeysVBF, k)
}

// SignalMassWindow is the blinded Higgs-candidate mass window handed to the collaborator
var SignalMassWindow = MassWindow{Low: 110, High: 140}

// Defaults for RunConfig fields that have one
const (
	DefaultDataDir   = "/ceph/cms/store/user/cmantill/bbbb/skimmer/"
	DefaultMassBins  = 10
	DefaultTag       = "24Sep25_v12v2_private_signal"
	DefaultBDTModel  = "24May31_lr_0p02_md_8_AK4Away"
	DefaultMass      = MassH2PNetMass
	DefaultMethod    = MethodABCD
	DefaultVBFTXbbWP = 0.95
	DefaultVBFBDTWP  = 0.98
	DefaultPtFirst   = 300
	DefaultPtSecond  = 250
)

// DefaultRunConfig returns a RunConfig populated with every documented default.
// OutputDir and TemplatesTag have no default and stay empty.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		DataDir:        DefaultDataDir,
		MassBins:       DefaultMassBins,
		Tag:            DefaultTag,
		Years:          slices.Clone(Years),
		Mass:           DefaultMass,
		BDTModel:       DefaultBDTModel,
		BDTConfig:      DefaultBDTModel,
		TXbb:           TXbbDefault,
		TXbbWPs:        [2]float64{0.975, 0.82},
		BDTWPs:         [3]float64{0.98, 0.88, 0.03},
		Method:         DefaultMethod,
		VBFTXbbWP:      DefaultVBFTXbbWP,
		VBFBDTWP:       DefaultVBFBDTWP,
		WeightTTbarBDT: 1.0,
		SigKeys:        SigKeys(),
		PtFirst:        DefaultPtFirst,
		PtSecond:       DefaultPtSecond,

		BDTDisc:      true,
		BDTRoc:       false,
		ControlPlots: false,
		FOMScan:      false,
		FOMScanBin1:  true,
		FOMScanBin2:  true,
		FOMScanVBF:   false,
		Templates:    true,
		VBF:          true,
		VBFPriority:  false,
		Blind:        true,
	}
}
