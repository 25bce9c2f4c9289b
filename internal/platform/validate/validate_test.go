package validate

import (
	"strings"
	"testing"

	perr "hh4b/internal/platform/errors"
	kit "hh4b/internal/platform/testkit"
)

type sample struct {
	Name   string   `flag:"name" validate:"required"`
	Bins   int      `flag:"bins" validate:"oneof=10 15 20"`
	Colors []string `yaml:"colors" validate:"min=1,dive,color"`
	Plain  string   `validate:"omitempty,oneof=a b"`
}

func init() {
	_ = Register("color", func(fl FieldLevel) bool {
		switch fl.Field().String() {
		case "red", "green":
			return true
		}
		return false
	}, "{0} has unknown color {1}")
}

func TestStruct_OK(t *testing.T) {
	if err := Struct(sample{Name: "x", Bins: 15, Colors: []string{"red"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStruct_MessagesUseTagNames(t *testing.T) {
	err := Struct(sample{Bins: 12, Colors: []string{"red", "blue"}, Plain: "c"})
	kit.MustCode(t, err, perr.ErrorCodeConfiguration)

	msg := err.Error()
	kit.MustContain(t, msg, "name is required")
	kit.MustContain(t, msg, "bins must be one of [10 15 20]")
	kit.MustContain(t, msg, "has unknown color blue")
	kit.MustContain(t, msg, "Plain must be one of [a b]")

	e, _ := perr.As(err)
	if e.Field() != "name" {
		t.Fatalf("first field = %q, want name", e.Field())
	}
}

func TestStruct_MinOnSlice(t *testing.T) {
	err := Struct(sample{Name: "x", Bins: 10})
	if err == nil || !strings.Contains(err.Error(), "colors must have at least 1 value(s)") {
		t.Fatalf("expected min message, got %v", err)
	}
}

func TestStruct_InvalidTarget(t *testing.T) {
	err := Struct(42)
	kit.MustCode(t, err, perr.ErrorCodeUnknown)
}
