package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/natefinch/atomic"
	"github.com/neurodesk/hublc/pkg/hubl"
	"github.com/neurodesk/hublc/pkg/netcache"
	"github.com/neurodesk/hublc/pkg/session"
	"github.com/neurodesk/hublc/pkg/source"
	"github.com/spf13/cobra"
)

const displayPrefix = "→ "

var renderOutput string
var sessionPath string

type rendered struct {
	name string
	text string
}

var renderCmd = cobra.Command{
	Use:   "render [SOURCE...]",
	Short: "Render templates from files, glob patterns, URLs or stdin (-)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{source.Stdin}
		}
		loader := &source.Loader{Stdin: cmd.InOrStdin()}
		if cfg.CacheDir != "" {
			loader.Cache = netcache.New(cfg.CacheDir)
		}
		sources, err := loader.Load(cmd.Context(), args)
		if err != nil {
			return err
		}

		store, err := openSession()
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		renderer, err := newRenderer(store)
		if err != nil {
			return err
		}
		// All sources share one renderer, so later templates see earlier
		// assignments.
		var results []rendered
		for _, src := range sources {
			slog.Debug("rendering", "source", src.Name)
			results = append(results, rendered{name: src.Name, text: renderer.Render(src.Text)})
		}

		if store != nil {
			if err := store.Save(renderer.Scope); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
		}

		if renderOutput != "" {
			return writeOutputs(renderOutput, results)
		}
		for _, r := range results {
			if err := display(cmd.OutOrStdout(), r.text); err != nil {
				return err
			}
		}
		return nil
	},
}

// openSession opens the session named by --session or the config file. It
// returns nil when neither names one.
func openSession() (*session.Store, error) {
	p := sessionPath
	if p == "" {
		p = cfg.Session
	}
	if p == "" {
		return nil, nil
	}
	return session.Open(p)
}

// newRenderer returns a renderer seeded with the configured variables and
// then the session variables.
func newRenderer(store *session.Store) (*hubl.Renderer, error) {
	r := hubl.NewRenderer()
	r.Logger = slog.Default().With("component", "render")
	cfg.seed(r.Scope)
	if store != nil {
		if err := store.Load(r.Scope); err != nil {
			return nil, fmt.Errorf("loading session: %w", err)
		}
	}
	return r, nil
}

// display writes text to w, marking it with an arrow on a terminal.
func display(w io.Writer, text string) error {
	prefix := ""
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		prefix = displayPrefix
	}
	_, err := fmt.Fprintln(w, prefix+text)
	return err
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeOutputs writes a single result to dest, or several results into the
// directory dest.
func writeOutputs(dest string, results []rendered) error {
	if len(results) == 1 {
		if st, err := os.Stat(dest); err != nil || !st.IsDir() {
			return writeFile(dest, results[0].text)
		}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, r := range results {
		if err := writeFile(filepath.Join(dest, outputName(r.name)), r.text); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(p, text string) error {
	if err := atomic.WriteFile(p, strings.NewReader(text)); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	slog.Info("wrote output", "path", p)
	return nil
}

// outputName picks the file name a source is written under.
func outputName(name string) string {
	switch {
	case name == source.Stdin:
		return "stdin"
	case source.IsURL(name):
		if u, err := url.Parse(name); err == nil {
			if base := path.Base(u.Path); base != "/" && base != "." {
				return base
			}
			return u.Hostname()
		}
	}
	return filepath.Base(name)
}
