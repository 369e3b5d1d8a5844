// Package source resolves command-line template arguments into template text.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/neurodesk/hublc/pkg/netcache"
)

// Stdin is the argument that reads a template from standard input.
const Stdin = "-"

// ErrNoMatch is returned when a glob pattern matches no files.
var ErrNoMatch = errors.New("pattern matched no files")

// Source is one template to render.
type Source struct {
	Name string
	Text string
}

// Loader reads templates from files, glob patterns, standard input and
// HTTP(S) URLs.
type Loader struct {
	Stdin io.Reader
	// Cache fetches URLs. URLs are rejected when it is nil.
	Cache *netcache.Cache
}

// Load expands every argument in order. Glob matches are sorted lexically.
func (l *Loader) Load(ctx context.Context, args []string) ([]Source, error) {
	var out []Source
	for _, arg := range args {
		switch {
		case arg == Stdin:
			if l.Stdin == nil {
				return nil, fmt.Errorf("reading stdin: no input")
			}
			b, err := io.ReadAll(l.Stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			out = append(out, Source{Name: Stdin, Text: string(b)})
		case IsURL(arg):
			if l.Cache == nil {
				return nil, fmt.Errorf("fetching %s: no cache directory configured", arg)
			}
			b, cached, err := l.Cache.Get(ctx, arg)
			if err != nil {
				return nil, err
			}
			slog.Debug("fetched template", "url", arg, "cached", cached)
			out = append(out, Source{Name: arg, Text: string(b)})
		case isPattern(arg):
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("expanding %s: %w", arg, ErrNoMatch)
			}
			slices.Sort(matches)
			for _, m := range matches {
				src, err := readFile(m)
				if err != nil {
					return nil, err
				}
				out = append(out, src)
			}
		default:
			src, err := readFile(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, src)
		}
	}
	return out, nil
}

// IsURL reports whether arg names an HTTP(S) resource.
func IsURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

func isPattern(arg string) bool {
	return strings.ContainsAny(arg, "*?[{")
}

func readFile(path string) (Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("reading template: %w", err)
	}
	return Source{Name: path, Text: string(b)}, nil
}
