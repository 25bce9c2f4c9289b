package runcard

import (
	"io"
	"sync"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/validate"
	"hh4b/internal/services/postprocess/domain"

	"github.com/spf13/pflag"
)

var registerOnce sync.Once

func registerTags() {
	registerOnce.Do(func() {
		_ = validate.Register("year", func(fl validate.FieldLevel) bool {
			return domain.IsKnownYear(fl.Field().String())
		}, "{0} contains unknown year {1}")
		_ = validate.Register("sigkey", func(fl validate.FieldLevel) bool {
			return domain.IsKnownSigKey(fl.Field().String())
		}, "{0} contains unknown signal key {1}")
	})
}

// Validate checks every RunConfig invariant
func Validate(cfg domain.RunConfig) error {
	registerTags()
	return perr.WithOp(validate.Struct(cfg), "configure")
}

// Parse builds a validated RunConfig from argv alone: defaults, then the run card
// named by --config (if any), then the flags. It is the library form of the CLI's
// configure step.
func Parse(args []string) (domain.RunConfig, error) {
	args = NormalizeArgs(args)

	cfg := domain.DefaultRunConfig()
	if p := CardPath(args); p != "" {
		if err := LoadCard(p, &cfg); err != nil {
			return domain.RunConfig{}, err
		}
	}

	fs := pflag.NewFlagSet("hh4b-postprocess", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	Bind(fs, &cfg)
	fs.String(CardFlag, "", "YAML run card")
	if err := fs.Parse(args); err != nil {
		return domain.RunConfig{}, perr.WithOp(perr.Wrap(err, perr.ErrorCodeConfiguration, "invalid arguments"), "configure")
	}
	if fs.NArg() > 0 {
		return domain.RunConfig{}, perr.Configf("unexpected arguments: %v", fs.Args())
	}
	if err := Validate(cfg); err != nil {
		return domain.RunConfig{}, err
	}
	return cfg, nil
}
