// Package gen renders a parsed, normalized ir.Root into the two C output
// streams described by spec.md §4.5 (declaration/header and
// implementation/source), plus the optional Go manifest described in
// SPEC_FULL.md §2. Its functional-options Config is grounded on the
// teacher's compiler/gen/option.go.
package gen

import (
	"fmt"
	"strings"
)

// recognizedBackends is the fixed set spec.md §6 allows on -b; only
// "sqlite3" has a real emitted interface instance (sqlgen.c's db_sqlite3).
var recognizedBackends = map[string]bool{
	"sqlite3": true,
}

// Config controls how a Root is rendered: what the two C artifacts are
// named for include-guard and #include purposes, which backends the
// dispatcher recognizes, whether debug-layer wrappers are forced on, and
// whether an optional Go manifest is also produced.
type Config struct {
	HeaderName   string   // e.g. "sqlgen" -> sqlgen.h's include guard and the .h the .c #includes
	Backends     []string // spec.md §6 "-b LIST"; validated against recognizedBackends
	DebugLayer   bool     // spec.md §6 "--debug-layer"; ORed with %option debug-layer
	ManifestPath string   // empty disables manifest generation
}

// Option configures a Config.
type Option func(*Config) error

// WithHeaderName sets the base name used for the include guard and the
// implementation file's #include of the declaration file.
func WithHeaderName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("gen: header name cannot be empty")
		}
		c.HeaderName = name
		return nil
	}
}

// WithBackends sets the recognized backend list (spec.md §6 "-b LIST").
// Entries not in recognizedBackends are dropped, and an error is returned
// when no recognized entry is left; "specifying no known backend is a usage
// error" (spec.md §6).
func WithBackends(backends []string) Option {
	return func(c *Config) error {
		var known []string
		for _, b := range backends {
			if recognizedBackends[b] {
				known = append(known, b)
			}
		}
		if len(known) == 0 {
			return fmt.Errorf("gen: no recognized backend in -b %q (recognized: sqlite3)", strings.Join(backends, ","))
		}
		c.Backends = known
		return nil
	}
}

// WithDebugLayer forces debug-layer emission regardless of %option
// debug-layer (spec.md §6 "--debug-layer").
func WithDebugLayer(on bool) Option {
	return func(c *Config) error {
		c.DebugLayer = on
		return nil
	}
}

// WithManifestPath enables manifest generation at path.
func WithManifestPath(path string) Option {
	return func(c *Config) error {
		c.ManifestPath = path
		return nil
	}
}

// NewConfig applies opts over the zero Config, in order. The default
// backend list is ["sqlite3"], the only backend spec.md §6 recognizes, so
// callers that don't care about -b still get a working dispatcher.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{HeaderName: "sqlgen", Backends: []string{"sqlite3"}}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
