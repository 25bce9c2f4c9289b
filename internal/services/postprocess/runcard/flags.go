// Package runcard builds the validated RunConfig from built-in defaults, an
// optional YAML run card and the command line
package runcard

import (
	"strconv"
	"strings"

	"hh4b/internal/services/postprocess/domain"

	"github.com/spf13/pflag"
)

// multiValued lists the flags that take several space-separated values
var multiValued = map[string]bool{
	"years":          true,
	"training-years": true,
	"sig-keys":       true,
	"txbb-wps":       true,
	"bdt-wps":        true,
}

// Bind registers every RunConfig flag on fs, bound to cfg. The current contents of
// cfg become the flag defaults, so apply the run card before calling Bind.
func Bind(fs *pflag.FlagSet, cfg *domain.RunConfig) {
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory to save processed dataframes (required)")
	fs.StringVar(&cfg.TemplatesTag, "templates-tag", cfg.TemplatesTag,
		"output directory tag of the histogram templates (required)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the input ntuples")
	fs.IntVar(&cfg.MassBins, "mass-bins", cfg.MassBins, "width of mass bins: 10, 15 or 20")
	fs.StringVar(&cfg.Tag, "tag", cfg.Tag, "tag for input ntuples")
	fs.Var(&listValue{&cfg.Years}, "years", "years to postprocess ("+strings.Join(domain.Years, ", ")+")")
	fs.Var(&listValue{&cfg.TrainingYears}, "training-years", "years used in training")
	fs.StringVar(&cfg.Mass, "mass", cfg.Mass, "mass variable to make template: H2Msd or H2PNetMass")
	fs.StringVar(&cfg.BDTModel, "bdt-model", cfg.BDTModel, "BDT model to load")
	fs.StringVar(&cfg.BDTConfig, "bdt-config", cfg.BDTConfig, "BDT config to load")
	fs.StringVar(&cfg.TXbb, "txbb", cfg.TXbb,
		"version of TXbb tagger/mass regression to use: pnet-legacy, pnet-v12 or glopart-v2")
	fs.Var(&floatsValue{cfg.TXbbWPs[:]}, "txbb-wps", "TXbb Bin 1, Bin 2 WPs")
	fs.Var(&floatsValue{cfg.BDTWPs[:]}, "bdt-wps", "BDT Bin 1, Bin 2, Fail WPs")
	fs.StringVar(&cfg.Method, "method", cfg.Method, "method for scanning: abcd or sideband")
	fs.Float64Var(&cfg.VBFTXbbWP, "vbf-txbb-wp", cfg.VBFTXbbWP, "TXbb VBF WP")
	fs.Float64Var(&cfg.VBFBDTWP, "vbf-bdt-wp", cfg.VBFBDTWP, "BDT VBF WP")
	fs.Float64Var(&cfg.WeightTTbarBDT, "weight-ttbar-bdt", cfg.WeightTTbarBDT, "Weight TTbar discriminator on VBF BDT")
	fs.Var(&listValue{&cfg.SigKeys}, "sig-keys", "sig keys for which to make templates")
	fs.Float64Var(&cfg.PtFirst, "pt-first", cfg.PtFirst, "pt threshold for leading jet")
	fs.Float64Var(&cfg.PtSecond, "pt-second", cfg.PtSecond, "pt threshold for subleading jet")

	addSwitch(fs, &cfg.BDTDisc, "bdt-disc",
		"use BDT discriminant P_sig / (P_sig + P_bkg), otherwise use P_sig")
	addSwitch(fs, &cfg.BDTRoc, "bdt-roc", "make BDT ROC curve")
	addSwitch(fs, &cfg.ControlPlots, "control-plots", "make control plots")
	addSwitch(fs, &cfg.FOMScan, "fom-scan", "run figure of merit scans")
	addSwitch(fs, &cfg.FOMScanBin1, "fom-scan-bin1", "FOM scan for bin 1")
	addSwitch(fs, &cfg.FOMScanBin2, "fom-scan-bin2", "FOM scan for bin 2")
	addSwitch(fs, &cfg.FOMScanVBF, "fom-scan-vbf", "FOM scan for VBF bin")
	addSwitch(fs, &cfg.Templates, "templates", "make templates")
	addSwitch(fs, &cfg.VBF, "vbf", "Add VBF region")
	addSwitch(fs, &cfg.VBFPriority, "vbf-priority", "Prioritize the VBF region over ggF Cat 1")
	addSwitch(fs, &cfg.Blind, "blind", "Blind the analysis")
}

// addSwitch registers --name and --no-name on the same target
func addSwitch(fs *pflag.FlagSet, target *bool, name, usage string) {
	on := fs.VarPF(&switchValue{target: target, on: true}, name, "", usage)
	on.NoOptDefVal = "true"
	on.DefValue = strconv.FormatBool(*target)

	off := fs.VarPF(&switchValue{target: target, on: false}, "no-"+name, "", "disable --"+name)
	off.NoOptDefVal = "true"
	off.DefValue = "false"
}

// NormalizeArgs rewrites space-separated multi-value flags into the single-token
// form pflag understands: "--years 2022 2023" becomes "--years=2022,2023".
// Values are collected until the next token that looks like a flag; negative
// numbers count as values. Everything after "--" is passed through untouched.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			out = append(out, args[i:]...)
			break
		}
		name, ok := strings.CutPrefix(tok, "--")
		if !ok || strings.Contains(name, "=") || !multiValued[name] {
			out = append(out, tok)
			continue
		}
		var vals []string
		for i+1 < len(args) && !looksLikeFlag(args[i+1]) {
			i++
			vals = append(vals, args[i])
		}
		if len(vals) == 0 {
			out = append(out, tok)
			continue
		}
		out = append(out, tok+"="+strings.Join(vals, ","))
	}
	return out
}

func looksLikeFlag(tok string) bool {
	if !strings.HasPrefix(tok, "-") || tok == "-" {
		return false
	}
	return !isNumber(tok)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	digits := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case r == '-' || r == '+':
			if i != 0 && s[i-1] != 'e' && s[i-1] != 'E' {
				return false
			}
		case r == '.' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return digits
}
