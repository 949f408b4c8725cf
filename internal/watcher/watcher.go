// Package watcher subscribes to filesystem notifications for the templates
// and variables trees and routes each change to the matching re-render.
//
// Event handling sits behind a drop-style debounce gate: an event starting
// before the debounce interval has elapsed since the previously handled
// event is dropped outright, not queued or coalesced. Two distinct files
// changing inside one window therefore trigger only one re-render. That is
// the inherited contract of this tool; replacing it with true coalescing
// would be a behavior change, not a refactor.
package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stencil/internal/config"
	"stencil/internal/engine"
)

type targetKind int

const (
	targetNone targetKind = iota
	// targetTemplate re-renders every variant of one template.
	targetTemplate
	// targetVariant re-renders a single (template, variant) pair.
	targetVariant
)

// target is the classified outcome of one filesystem event.
type target struct {
	kind     targetKind
	template string
	variant  string
}

// Dispatcher watches the templates and variables trees and re-renders
// affected outputs. All event handling runs on one goroutine; lastEvent is
// only touched there.
type Dispatcher struct {
	cfg       *config.Config
	engine    *engine.Engine
	watcher   *fsnotify.Watcher
	out       io.Writer
	logger    zerolog.Logger
	debounce  time.Duration
	now       func() time.Time
	lastEvent time.Time

	templatesRoot string
	variablesRoot string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithOutput redirects the change announcements, normally os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) { d.out = w }
}

// WithClock overrides the debounce clock.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a dispatcher watching cfg's templates and
// variables trees.
func NewDispatcher(cfg *config.Config, eng *engine.Engine, opts ...Option) (*Dispatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	templatesRoot, err := filepath.Abs(cfg.Paths.TemplatesDir)
	if err != nil {
		return nil, err
	}
	variablesRoot, err := filepath.Abs(cfg.Paths.VariablesDir)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		cfg:           cfg,
		engine:        eng,
		watcher:       fw,
		out:           os.Stdout,
		logger:        log.With().Str("component", "watcher").Logger(),
		debounce:      cfg.Watch.Debounce,
		now:           time.Now,
		templatesRoot: templatesRoot,
		variablesRoot: variablesRoot,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start registers the watch trees and blocks processing events until ctx
// is done.
func (d *Dispatcher) Start(ctx context.Context) error {
	for _, root := range []string{d.templatesRoot, d.variablesRoot} {
		if err := d.addRecursive(root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(event)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// Stop closes the underlying watcher.
func (d *Dispatcher) Stop() error {
	return d.watcher.Close()
}

func (d *Dispatcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return d.watcher.Add(path)
		}
		return nil
	})
}

func (d *Dispatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		// New variables subdirectories need to join the watch;
		// directory events trigger no render themselves.
		if event.Has(fsnotify.Create) {
			if err := d.watcher.Add(event.Name); err != nil {
				d.logger.Warn().Err(err).Str("path", event.Name).Msg("watch add failed")
			}
		}
		return
	}

	// Drop-gate debounce: the timestamp advances for every handled file
	// event, then unmatched paths are discarded.
	now := d.now()
	if now.Sub(d.lastEvent) < d.debounce {
		return
	}
	d.lastEvent = now

	t := d.classify(event.Name)
	stamp := now.Format("15:04:05")
	switch t.kind {
	case targetTemplate:
		fmt.Fprintf(d.out, "\n[%s] %s changed\n", stamp, filepath.Base(event.Name))
		d.engine.RenderTemplate(t.template, "", true)
	case targetVariant:
		fmt.Fprintf(d.out, "\n[%s] %s/%s changed\n", stamp, t.template, filepath.Base(event.Name))
		d.engine.RenderOne(t.template, t.variant, true)
	}
}

// classify maps a changed path to the re-render it requires. A template
// definition change reloads every variant of that template; a variable
// file change reloads only its own (template, variant) pair. Anything
// else yields targetNone.
func (d *Dispatcher) classify(path string) target {
	abs, err := filepath.Abs(path)
	if err != nil {
		return target{kind: targetNone}
	}

	switch {
	case within(abs, d.templatesRoot) && filepath.Ext(abs) == d.cfg.Paths.TemplateExt:
		name := strings.TrimSuffix(filepath.Base(abs), d.cfg.Paths.TemplateExt)
		return target{kind: targetTemplate, template: name}
	case within(abs, d.variablesRoot) && filepath.Ext(abs) == d.cfg.Paths.DataExt:
		variant := strings.TrimSuffix(filepath.Base(abs), d.cfg.Paths.DataExt)
		name := filepath.Base(filepath.Dir(abs))
		return target{kind: targetVariant, template: name, variant: variant}
	default:
		return target{kind: targetNone}
	}
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
