package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"stencil/internal/config"
	"stencil/internal/engine"
	"stencil/internal/watcher"
)

// runWatch performs an initial full render, then re-renders affected
// outputs on filesystem changes until interrupted. Interruption is a clean
// exit, not a failure.
func runWatch(ctx context.Context, cfg *config.Config, eng *engine.Engine) error {
	fmt.Printf("[%s] Watching %s and %s\n",
		time.Now().Format("15:04:05"), cfg.Paths.TemplatesDir, cfg.Paths.VariablesDir)
	fmt.Println("Press Ctrl+C to stop.")

	eng.RenderAll(false)

	dispatcher, err := watcher.NewDispatcher(cfg, eng)
	if err != nil {
		return err
	}
	defer dispatcher.Stop()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatcher.Start(ctx); err != nil {
		return err
	}

	fmt.Println("\nStopped watching.")
	return nil
}
