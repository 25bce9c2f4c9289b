package version

import "testing"

func TestInfoDefaults(t *testing.T) {
	bi := Info()
	if bi.Service != "hh4b-postprocess" || bi.Version != "dev" {
		t.Fatalf("unexpected build info: %+v", bi)
	}
	if got := bi.String(); got != "dev (commit none, built unknown)" {
		t.Fatalf("String() = %q", got)
	}
}
