// Package config handles ambient configuration via environment variables
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Conf is a namespaced view over environment variables (e.g., "HH4B_", "LOG_")
// Use New() for global access, or Prefix("HH4B_LEDGER_") for module scopes.
type Conf struct {
	prefix string
	log    *zerolog.Logger
}

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// WithLogger returns a copy that reports invalid optional values on l
func (c Conf) WithLogger(l zerolog.Logger) Conf {
	c.log = &l
	return c
}

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("MIRROR_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p, log: c.log} }

// key composes the fully-qualified env var name
func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) get(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// warn reports a fallback to the default; silent when no logger is attached
func (c Conf) warn(key, value string) *zerolog.Event {
	if c.log == nil {
		return nil
	}
	return c.log.Warn().Str("key", c.key(key)).Str("value", value)
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	if v := c.get(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt(key string, def int) int {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if ev := c.warn(key, s); ev != nil {
		ev.Int("default", def).Msg("invalid int; using default")
	}
	return def
}

// MayBool returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayBool(key string, def bool) bool {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	if ev := c.warn(key, s); ev != nil {
		ev.Bool("default", def).Msg("invalid bool; using default")
	}
	return def
}

// MayFields splits the value on whitespace (shell-free argv); def if missing/empty
func (c Conf) MayFields(key string, def []string) []string {
	s := c.get(key)
	if s == "" {
		return def
	}
	return strings.Fields(s)
}

// MayEnum returns the value if it is one of allowed (case-insensitive), def if empty or invalid
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.get(key)
	if v == "" {
		return def
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	if ev := c.warn(key, v); ev != nil {
		ev.Strs("allowed", allowed).Str("default", def).Msg("invalid enum value; using default")
	}
	return def
}
