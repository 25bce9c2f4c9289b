// Package artifacts writes and reads the per-year result files in the output directory
package artifacts

import (
	"os"
	"path/filepath"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/logger"
	"hh4b/internal/services/postprocess/domain"

	"github.com/dustin/go-humanize"
)

// seams
var (
	createFile = os.Create
	mkdirAll   = os.MkdirAll
)

// FileName returns the artifact file name for kind and year, e.g. cutflow_2022.gob.zst
func FileName(kind, year string) string { return kind + "_" + year + Ext }

// EnsureOutputDir creates path and any missing parents. It is a no-op when the
// directory already exists and fails when path is something other than a directory.
func EnsureOutputDir(path string) error {
	fi, err := os.Stat(path)
	switch {
	case err == nil && !fi.IsDir():
		return perr.WithField(perr.Storagef("output path %s exists and is not a directory", path), "output-dir")
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return perr.Wrapf(err, perr.ErrorCodeStorage, "stat output dir %s", path)
	}
	if err := mkdirAll(path, 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "create output dir %s", path)
	}
	return nil
}

// Store persists artifacts under a single output directory
type Store struct {
	dir string
	log logger.Logger
}

// New returns a Store rooted at dir
func New(dir string, log logger.Logger) *Store {
	return &Store{dir: dir, log: logger.Named(log, "artifacts")}
}

// Dir returns the output directory
func (s *Store) Dir() string { return s.dir }

// Path returns the full path of the artifact for kind and year
func (s *Store) Path(kind, year string) string { return filepath.Join(s.dir, FileName(kind, year)) }

// EnsureOutputDir creates the store's directory if needed
func (s *Store) EnsureOutputDir() error { return EnsureOutputDir(s.dir) }

// Persist writes the events table, then the cutflow. Existing files are overwritten in
// place; a failed write leaves whatever reached the disk.
func (s *Store) Persist(year string, events domain.EventsTable, cutflow domain.Cutflow) (domain.ArtifactRef, domain.ArtifactRef, error) {
	evRef, err := s.write(domain.KindEvents, year, eventsHeader(events, year), toEventsWire(events))
	if err != nil {
		return domain.ArtifactRef{}, domain.ArtifactRef{}, err
	}
	s.log.Info().Str("year", year).Str("path", evRef.Path).
		Str("size", humanize.Bytes(uint64(evRef.Bytes))).Msg("saved processed events")

	cfRef, err := s.write(domain.KindCutflow, year, cutflowHeader(cutflow, year), toCutflowWire(cutflow))
	if err != nil {
		return evRef, domain.ArtifactRef{}, err
	}
	s.log.Info().Str("year", year).Str("path", cfRef.Path).
		Str("size", humanize.Bytes(uint64(cfRef.Bytes))).Msg("saved cutflow")

	return evRef, cfRef, nil
}

func (s *Store) write(kind, year string, h header, v any) (domain.ArtifactRef, error) {
	path := s.Path(kind, year)
	f, err := createFile(path)
	if err != nil {
		return domain.ArtifactRef{}, perr.Wrapf(err, perr.ErrorCodeStorage, "create %s", path)
	}
	if err := encode(f, h, v); err != nil {
		_ = f.Close()
		return domain.ArtifactRef{}, perr.Wrapf(err, perr.ErrorCodeStorage, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return domain.ArtifactRef{}, perr.Wrapf(err, perr.ErrorCodeStorage, "close %s", path)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return domain.ArtifactRef{}, perr.Wrapf(err, perr.ErrorCodeStorage, "stat %s", path)
	}
	return domain.ArtifactRef{Kind: kind, Year: year, Path: path, Bytes: fi.Size()}, nil
}

// LoadEvents reads back a processed-events artifact
func LoadEvents(path string) (domain.EventsTable, error) {
	var w eventsWire
	if err := load(path, domain.KindEvents, &w); err != nil {
		return domain.EventsTable{}, err
	}
	return w.table(), nil
}

// LoadCutflow reads back a cutflow artifact
func LoadCutflow(path string) (domain.Cutflow, error) {
	var w cutflowWire
	if err := load(path, domain.KindCutflow, &w); err != nil {
		return domain.Cutflow{}, err
	}
	return w.cutflow(), nil
}

func load(path, kind string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "open %s", path)
	}
	defer func() { _ = f.Close() }()
	if _, err := decode(f, kind, v); err != nil {
		if _, ours := perr.As(err); ours {
			return perr.WithField(err, path)
		}
		return perr.Wrapf(err, perr.ErrorCodeStorage, "decode %s", path)
	}
	return nil
}
