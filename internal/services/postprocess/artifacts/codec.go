package artifacts

import (
	"encoding/gob"
	"io"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/services/postprocess/domain"

	"github.com/klauspost/compress/zstd"
)

// Ext is the file extension of every artifact: a gob stream inside a zstd frame
const Ext = ".gob.zst"

// header leads every stream so a reader can reject the wrong artifact
type header struct {
	Kind   string
	Schema string
	Year   string
}

func encode(w io.Writer, h header, v any) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	enc := gob.NewEncoder(zw)
	if err := enc.Encode(h); err != nil {
		_ = zw.Close()
		return err
	}
	if err := enc.Encode(v); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func decode(r io.Reader, kind string, v any) (header, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return header{}, err
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var h header
	if err := dec.Decode(&h); err != nil {
		return header{}, err
	}
	if h.Kind != kind {
		return h, perr.Storagef("artifact kind %q, want %q", h.Kind, kind)
	}
	if err := dec.Decode(v); err != nil {
		return h, err
	}
	return h, nil
}

// gob sends nil and zero-length slices the same way, so the wire records mark
// which slices were present but empty and the loaders restore them exactly.

type columnWire struct {
	Name   string
	Values []float64
	Empty  bool
}

type eventsWire struct {
	Schema       string
	Year         string
	Columns      []columnWire
	EmptyColumns bool
	Weights      []float64
	EmptyWeights bool
}

type cutflowWire struct {
	Schema      string
	Year        string
	Stages      []domain.CutStage
	EmptyStages bool
}

func emptyNonNil[T any](s []T) bool { return s != nil && len(s) == 0 }

func restore[T any](s []T, empty bool) []T {
	if empty && s == nil {
		return []T{}
	}
	return s
}

func toEventsWire(t domain.EventsTable) eventsWire {
	w := eventsWire{
		Schema:       t.Schema,
		Year:         t.Year,
		EmptyColumns: emptyNonNil(t.Columns),
		Weights:      t.Weights,
		EmptyWeights: emptyNonNil(t.Weights),
	}
	if len(t.Columns) > 0 {
		w.Columns = make([]columnWire, len(t.Columns))
		for i, c := range t.Columns {
			w.Columns[i] = columnWire{Name: c.Name, Values: c.Values, Empty: emptyNonNil(c.Values)}
		}
	}
	return w
}

func (w eventsWire) table() domain.EventsTable {
	t := domain.EventsTable{
		Schema:  w.Schema,
		Year:    w.Year,
		Weights: restore(w.Weights, w.EmptyWeights),
	}
	if len(w.Columns) > 0 {
		t.Columns = make([]domain.Column, len(w.Columns))
		for i, c := range w.Columns {
			t.Columns[i] = domain.Column{Name: c.Name, Values: restore(c.Values, c.Empty)}
		}
	} else if w.EmptyColumns {
		t.Columns = []domain.Column{}
	}
	return t
}

func toCutflowWire(c domain.Cutflow) cutflowWire {
	return cutflowWire{Schema: c.Schema, Year: c.Year, Stages: c.Stages, EmptyStages: emptyNonNil(c.Stages)}
}

func (w cutflowWire) cutflow() domain.Cutflow {
	return domain.Cutflow{Schema: w.Schema, Year: w.Year, Stages: restore(w.Stages, w.EmptyStages)}
}

func eventsHeader(t domain.EventsTable, year string) header {
	return header{Kind: domain.KindEvents, Schema: t.Schema, Year: year}
}

func cutflowHeader(c domain.Cutflow, year string) header {
	return header{Kind: domain.KindCutflow, Schema: c.Schema, Year: year}
}
