package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"stencil/internal/config"
	"stencil/internal/registry"
)

// runList prints the discovered catalog without rendering anything. It
// always succeeds, even when nothing is discovered.
func runList(cfg *config.Config, format string, w io.Writer) error {
	catalog, err := registry.Discover(cfg)
	if err != nil {
		return fmt.Errorf("discovering templates: %w", err)
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(catalog, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(catalog)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(data))
	case "table", "":
		printCatalog(cfg, catalog, w)
	default:
		return fmt.Errorf("unknown format %q (expected table, json, or yaml)", format)
	}
	return nil
}

func printCatalog(cfg *config.Config, catalog registry.Catalog, w io.Writer) {
	if len(catalog) == 0 {
		fmt.Fprintln(w, "No templates found.")
		fmt.Fprintln(w, "\nTo add a template:")
		fmt.Fprintf(w, "  1. Create %s/<name>%s\n", cfg.Paths.TemplatesDir, cfg.Paths.TemplateExt)
		fmt.Fprintf(w, "  2. Create %s/<name>/default%s\n", cfg.Paths.VariablesDir, cfg.Paths.DataExt)
		return
	}

	fmt.Fprintln(w, "Available templates:")
	fmt.Fprintln(w)
	for _, name := range catalog.Names() {
		fmt.Fprintf(w, "  %s:\n", name)
		for _, variant := range catalog[name] {
			fmt.Fprintf(w, "    - %s\n", variant)
		}
	}
}
