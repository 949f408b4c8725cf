// Package registry discovers templates and their variants from the
// configured directory layout.
//
// A template exists when a subdirectory of the variables root has the same
// name as a template definition file and contains at least one variable
// file. Discovery is side-effect free and re-run fresh on every call; there
// is no persistent catalog.
package registry

import (
	"os"
	"sort"
	"strings"

	"stencil/internal/config"
)

// Catalog maps template names to their lexicographically ordered variant
// names.
type Catalog map[string][]string

// Names returns the template names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a template was discovered.
func (c Catalog) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// HasVariant reports whether a variant was discovered for a template.
func (c Catalog) HasVariant(name, variant string) bool {
	for _, v := range c[name] {
		if v == variant {
			return true
		}
	}
	return false
}

// Discover walks the variables root and matches each subdirectory against
// an existing template definition file. Subdirectories without a matching
// template file, or without any variable files, are omitted without error.
// A missing variables root yields an empty catalog.
func Discover(cfg *config.Config) (Catalog, error) {
	entries, err := os.ReadDir(cfg.Paths.VariablesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return Catalog{}, nil
		}
		return nil, err
	}

	catalog := Catalog{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, err := os.Stat(cfg.TemplatePath(name)); err != nil {
			// No template file for this variable directory. Policy
			// is silent omission, not an error.
			continue
		}
		variants, err := listVariants(cfg, name)
		if err != nil {
			return nil, err
		}
		if len(variants) > 0 {
			catalog[name] = variants
		}
	}
	return catalog, nil
}

func listVariants(cfg *config.Config, name string) ([]string, error) {
	entries, err := os.ReadDir(cfg.VariableDir(name))
	if err != nil {
		return nil, err
	}
	var variants []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := entry.Name()
		if !strings.HasSuffix(base, cfg.Paths.DataExt) {
			continue
		}
		variants = append(variants, strings.TrimSuffix(base, cfg.Paths.DataExt))
	}
	sort.Strings(variants)
	return variants, nil
}
