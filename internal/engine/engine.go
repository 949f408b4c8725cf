// Package engine orchestrates the render pipeline: discovery, variable
// resolution, template expansion, change tracking, and output writes.
//
// Renders are independent of one another. A failed expansion still writes
// an artifact (the error document) and marks the item failed; it never
// aborts sibling variants or templates. The only aggregate failure signal
// is the boolean each operation returns, which the CLI turns into the
// process exit code.
package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stencil/internal/config"
	"stencil/internal/diffview"
	"stencil/internal/registry"
	"stencil/internal/renderer"
)

var (
	okMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✓")
	failMark = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("✗")
)

// Engine renders templates and reports per-item status. It holds no state
// across calls beyond the filesystem.
type Engine struct {
	cfg      *config.Config
	renderer *renderer.Renderer
	out      io.Writer
	quiet    bool
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput redirects status and diff output, normally os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithQuiet suppresses per-item status and diff output.
func WithQuiet(quiet bool) Option {
	return func(e *Engine) { e.quiet = quiet }
}

func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		renderer: renderer.New(cfg),
		out:      os.Stdout,
		logger:   log.With().Str("component", "engine").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RenderOne renders a single (template, variant) pair, writing either the
// rendered text or an error document to the primary output path. It
// returns false iff the render itself failed; a changed-vs-unchanged
// outcome does not affect the result.
func (e *Engine) RenderOne(name, variant string, showDiff bool) bool {
	outputPath := e.cfg.OutputPath(name, variant)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		e.printf("  %s %s/%s.md (%v)\n", failMark, name, variant, err)
		return false
	}

	// Prior content feeds the diff display; absent means first render.
	oldContent := ""
	if data, err := os.ReadFile(outputPath); err == nil {
		oldContent = string(data)
	}

	content, renderErr := e.renderer.Render(name, variant)
	if renderErr != nil {
		e.logger.Debug().Str("template", name).Str("variant", variant).
			Str("kind", renderErr.Kind.String()).Msg("render failed")
		content = renderer.ErrorDocument(name, variant, renderErr.Message, time.Now())
	}

	changed, err := diffview.SaveOldIfChanged(outputPath, content)
	if err != nil {
		e.printf("  %s %s/%s.md (%v)\n", failMark, name, variant, err)
		return false
	}

	if err := atomic.WriteFile(outputPath, strings.NewReader(content)); err != nil {
		e.printf("  %s %s/%s.md (%v)\n", failMark, name, variant, err)
		return false
	}

	mark := okMark
	if renderErr != nil {
		mark = failMark
	}
	state := "unchanged"
	if changed {
		state = "changed"
	}
	e.printf("  %s %s/%s.md (%s)\n", mark, name, variant, state)

	if showDiff && changed && !e.quiet {
		if err := diffview.WriteDiff(e.out, outputPath, oldContent, content); err != nil {
			e.logger.Warn().Err(err).Msg("diff display failed")
		}
	}

	return renderErr == nil
}

// RenderAll discovers and renders every template and variant, in sorted
// template order. It returns false if nothing was discovered or any
// individual render failed.
func (e *Engine) RenderAll(showDiff bool) bool {
	catalog, err := registry.Discover(e.cfg)
	if err != nil {
		e.printf("Discovery failed: %v\n", err)
		return false
	}
	if len(catalog) == 0 {
		e.printf("No templates found. Create %s/<name>/*%s files.\n",
			e.cfg.Paths.VariablesDir, e.cfg.Paths.DataExt)
		return false
	}

	allOK := true
	for _, name := range catalog.Names() {
		e.printf("\n%s:\n", name)
		for _, variant := range catalog[name] {
			if !e.RenderOne(name, variant, showDiff) {
				allOK = false
			}
		}
	}
	return allOK
}

// RenderTemplate renders one template: a single variant when variant is
// non-empty, otherwise every discovered variant. An unknown template fails
// the call outright; an unknown variant fails only that item.
func (e *Engine) RenderTemplate(name, variant string, showDiff bool) bool {
	catalog, err := registry.Discover(e.cfg)
	if err != nil {
		e.printf("Discovery failed: %v\n", err)
		return false
	}
	if !catalog.Has(name) {
		e.printf("Template '%s' not found.\n", name)
		e.printf("Available: %s\n", strings.Join(catalog.Names(), ", "))
		return false
	}

	variants := catalog[name]
	if variant != "" {
		variants = []string{variant}
	}

	e.printf("\n%s:\n", name)
	allOK := true
	for _, v := range variants {
		if !catalog.HasVariant(name, v) {
			e.printf("  Variant '%s' not found for %s\n", v, name)
			allOK = false
			continue
		}
		if !e.RenderOne(name, v, showDiff) {
			allOK = false
		}
	}
	return allOK
}

func (e *Engine) printf(format string, args ...any) {
	if e.quiet {
		return
	}
	fmt.Fprintf(e.out, format, args...)
}
