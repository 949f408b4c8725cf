// Package variables loads and merges the layered variable files backing a
// template variant.
//
// Every variant inherits from the template's default variable file: the
// default mapping is loaded first and the variant's own file overwrites
// matching keys. The merge is shallow — a nested object in the variant
// replaces the default's value for that key wholesale, it is never merged
// recursively.
package variables

import (
	"encoding/json"
	"fmt"
	"os"

	"stencil/internal/config"
)

// DefaultVariant is the base layer every other variant inherits from, and
// a renderable variant in its own right.
const DefaultVariant = "default"

// ParseError reports a malformed variable file. It is returned to the
// caller for classification rather than logged or printed here.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Resolve produces the merged variable set for a (template, variant) pair.
// Missing files are not errors: an absent default file means an empty base,
// an absent variant file means no overrides. A file that exists but fails
// to parse returns a *ParseError.
func Resolve(cfg *config.Config, name, variant string) (map[string]any, error) {
	base, err := loadFile(cfg.VariablePath(name, DefaultVariant))
	if err != nil {
		return nil, err
	}
	if variant == DefaultVariant {
		return base, nil
	}
	overrides, err := loadFile(cfg.VariablePath(name, variant))
	if err != nil {
		return nil, err
	}
	return Overlay(base, overrides), nil
}

// Overlay returns a fresh mapping holding every key of base overwritten by
// every key of over. Neither argument is mutated. Values are replaced
// wholesale; nested maps are not deep-merged.
func Overlay(base, over map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}

func loadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	var vars map[string]any
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if vars == nil {
		vars = map[string]any{}
	}
	return vars, nil
}
