// Package netcache fetches remote templates through an on-disk HTTP cache
// that revalidates with ETag and Last-Modified.
package netcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// MaxBodySize bounds a cached response body.
const MaxBodySize = 8 << 20

// ErrTooLarge is returned when a response exceeds MaxBodySize.
var ErrTooLarge = errors.New("response body too large")

// Cache is a persistent HTTP cache keyed by URL.
type Cache struct {
	Dir     string
	Client  *http.Client
	Retries int
	Backoff time.Duration
}

// New returns a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{
		Dir:     dir,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Retries: 3,
		Backoff: time.Second,
	}
}

type meta struct {
	URL          string `json:"url"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	DataFile     string `json:"data_file"`
}

// Get returns the body served at url. A cached copy is revalidated with a
// conditional request and reused when the server answers 304 or cannot be
// reached. Returns (body, fromCache, error).
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	key := hash(url)
	mpath := filepath.Join(c.Dir, key+".json")

	if m, ok := c.readMeta(mpath, url); ok {
		body, fresh, err := c.revalidate(ctx, url, m)
		if err == nil {
			if fresh {
				slog.Debug("cache hit", "url", url)
				return body, true, nil
			}
			return body, false, c.store(key, url, body, m)
		}
		slog.Warn("revalidation failed, using cached copy", "url", url, "error", err)
		if body, err := os.ReadFile(filepath.Join(c.Dir, m.DataFile)); err == nil {
			return body, true, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < max(c.Retries, 1); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			case <-time.After(c.Backoff << (attempt - 1)):
			}
		}
		resp, err := c.fetch(ctx, url, meta{})
		if err != nil {
			lastErr = err
			continue
		}
		body, err := readBody(resp)
		if err != nil {
			return nil, false, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
			if resp.StatusCode < 500 {
				return nil, false, lastErr
			}
			continue
		}
		return body, false, c.store(key, url, body, &meta{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		})
	}
	return nil, false, lastErr
}

// revalidate issues a conditional GET. fresh reports a 304; otherwise body
// is the new payload and m is updated with the new validators.
func (c *Cache) revalidate(ctx context.Context, url string, m *meta) (body []byte, fresh bool, err error) {
	resp, err := c.fetch(ctx, url, *m)
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		body, err := os.ReadFile(filepath.Join(c.Dir, m.DataFile))
		return body, true, err
	}
	body, err = readBody(resp)
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	m.ETag = resp.Header.Get("ETag")
	m.LastModified = resp.Header.Get("Last-Modified")
	return body, false, nil
}

func (c *Cache) fetch(ctx context.Context, url string, m meta) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if m.ETag != "" {
		req.Header.Set("If-None-Match", m.ETag)
	}
	if m.LastModified != "" {
		req.Header.Set("If-Modified-Since", m.LastModified)
	}
	return c.Client.Do(req)
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBodySize {
		return nil, ErrTooLarge
	}
	return body, nil
}

func (c *Cache) readMeta(path, url string) (*meta, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var m meta
	if err := json.Unmarshal(b, &m); err != nil || m.URL != url || m.DataFile == "" {
		return nil, false
	}
	if !fileExists(filepath.Join(c.Dir, m.DataFile)) {
		return nil, false
	}
	return &m, true
}

func (c *Cache) store(key, url string, body []byte, m *meta) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	m.URL = url
	m.DataFile = key + ".data"
	if err := atomic.WriteFile(filepath.Join(c.Dir, m.DataFile), bytes.NewReader(body)); err != nil {
		return fmt.Errorf("caching %s: %w", url, err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(c.Dir, key+".json"), bytes.NewReader(b))
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
