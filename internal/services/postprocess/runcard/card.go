package runcard

import (
	"errors"
	"io"
	"os"
	"strings"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/services/postprocess/domain"

	"gopkg.in/yaml.v3"
)

// CardFlag names the flag that points at a YAML run card
const CardFlag = "config"

// CardPath returns the run card path given on the command line, if any.
// It accepts both "--config path" and "--config=path".
func CardPath(args []string) string {
	for i, tok := range args {
		if tok == "--" {
			break
		}
		if v, ok := strings.CutPrefix(tok, "--"+CardFlag+"="); ok {
			return v
		}
		if tok == "--"+CardFlag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// LoadCard overlays the keys present in the YAML file at path onto cfg.
// Keys use the flag names; unknown keys are rejected.
func LoadCard(path string, cfg *domain.RunConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return perr.WithField(perr.Wrapf(err, perr.ErrorCodeConfiguration, "open run card %s", path), CardFlag)
	}
	defer func() { _ = f.Close() }()
	return decodeCard(f, path, cfg)
}

func decodeCard(r io.Reader, name string, cfg *domain.RunConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return perr.WithField(perr.Wrapf(err, perr.ErrorCodeConfiguration, "decode run card %s", name), CardFlag)
	}
	return nil
}
