package runcard

import (
	"fmt"
	"strconv"
	"strings"
)

// switchValue backs one side of a --flag / --no-flag pair. Both sides share the
// target, so whichever appears last on the command line wins.
type switchValue struct {
	target *bool
	on     bool
}

func (v *switchValue) String() string {
	if v.target == nil {
		return "false"
	}
	return strconv.FormatBool(*v.target == v.on)
}

func (v *switchValue) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*v.target = b == v.on
	return nil
}

func (v *switchValue) Type() string { return "bool" }

// listValue replaces the target with a comma-separated list on every Set
type listValue struct {
	target *[]string
}

func (v *listValue) String() string {
	if v.target == nil {
		return ""
	}
	return strings.Join(*v.target, ",")
}

func (v *listValue) Set(s string) error {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fmt.Errorf("expected at least one value")
	}
	*v.target = out
	return nil
}

func (v *listValue) Type() string { return "strings" }

// floatsValue fills a fixed-arity float array (via a slice view of it)
type floatsValue struct {
	target []float64
}

func (v *floatsValue) String() string {
	parts := make([]string, len(v.target))
	for i, f := range v.target {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (v *floatsValue) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != len(v.target) {
		return fmt.Errorf("expected %d values, got %d", len(v.target), len(parts))
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = f
	}
	copy(v.target, vals)
	return nil
}

func (v *floatsValue) Type() string { return fmt.Sprintf("%dxfloat", len(v.target)) }
