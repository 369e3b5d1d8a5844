package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchCmd = cobra.Command{
	Use:   "watch FILE",
	Short: "Render a template and re-render it whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		render := func() {
			text, err := os.ReadFile(args[0])
			if err != nil {
				slog.Warn("reading template", "path", args[0], "error", err)
				return
			}
			store, err := openSession()
			if err != nil {
				slog.Warn("opening session", "error", err)
				return
			}
			if store != nil {
				defer store.Close()
			}
			renderer, err := newRenderer(store)
			if err != nil {
				slog.Warn("preparing renderer", "error", err)
				return
			}
			if err := display(cmd.OutOrStdout(), renderer.Render(string(text))); err != nil {
				slog.Warn("writing output", "error", err)
			}
		}
		render()
		return watchFile(ctx, args[0], cfg.WatchDebounce, render)
	},
}

// watchFile calls onChange after path changes, once per burst of events
// separated by less than debounce. The parent directory is watched so that
// editors replacing the file by rename are noticed. It returns when ctx ends.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	slog.Info("watching template", "path", target)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("file event", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			onChange()
		}
	}
}
