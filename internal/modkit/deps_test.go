package modkit

import (
	"testing"

	"hh4b/internal/platform/config"
	"hh4b/internal/platform/store/pg"
	"hh4b/internal/platform/testkit"
)

func TestDeps_ZeroValue_IsOK(t *testing.T) {
	t.Parallel()
	var d Deps
	if d.HasPG() {
		t.Fatal("zero-value Deps has no PG")
	}
	testkit.MustNotPanic(t, d.Close)
}

func TestDeps_PGWithoutPool(t *testing.T) {
	t.Parallel()
	d := Deps{Cfg: config.New(), PG: &pg.PG{}}
	if d.HasPG() {
		t.Fatal("a PG without a pool is not usable")
	}
	testkit.MustNotPanic(t, d.Close)
}
