// Package resolver retrieves generated content artifacts at runtime and
// merges them against compiled-in defaults.
//
// The contract is total: every resolve returns a usable record. Fetched
// artifacts win key-by-key over defaults; any failure leaves the defaults
// untouched and surfaces a diagnostic error value instead of an exception in
// the caller's render path.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	pipeerr "git.home.luguber.info/inful/contentsync/internal/errors"
	"git.home.luguber.info/inful/contentsync/internal/logfields"
)

// Client fetches artifacts from a content-API root over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport. No extra timeout is
// enforced here beyond the transport's own behavior.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithClock overrides the cache-buster timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a resolver client for the given content-API root URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      http.DefaultClient,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolution is the three-state view exposed to page-layer callers.
type Resolution struct {
	Content map[string]any
	Loading bool
	Err     error
}

// Pending is the initial state before a fetch settles: defaults visible,
// loading flagged.
func Pending(defaults map[string]any) Resolution {
	return Resolution{Content: defaults, Loading: true}
}

// Resolve fetches the artifact at path (relative to the content-API root) and
// merges defaults under it. On any failure the returned content is defaults
// unchanged and Err describes the failure.
func (c *Client) Resolve(ctx context.Context, path string, defaults map[string]any) Resolution {
	fetched, err := c.fetch(ctx, path)
	if err != nil {
		slog.Warn("Artifact unavailable, serving defaults", logfields.Artifact(path), logfields.Error(err))
		return Resolution{Content: defaults, Err: err}
	}
	return Resolution{Content: ShallowMerge(defaults, fetched)}
}

// ResolveLocalized applies the locale cascade uniformly: the locale-specific
// artifact is tried first, then the locale-neutral one. A locale equal to ""
// or the artifact's own locale-neutral form skips the first probe.
func (c *Client) ResolveLocalized(ctx context.Context, path, locale string, defaults map[string]any) Resolution {
	if locale != "" {
		res := c.Resolve(ctx, LocalizePath(path, locale), defaults)
		if res.Err == nil {
			return res
		}
	}
	return c.Resolve(ctx, path, defaults)
}

// ResolveAsync starts the fetch and returns immediately; the settled
// Resolution arrives on the channel. Callers torn down before it settles
// simply stop receiving; the result is discarded with them.
func (c *Client) ResolveAsync(ctx context.Context, path string, defaults map[string]any) <-chan Resolution {
	out := make(chan Resolution, 1)
	go func() {
		out <- c.Resolve(ctx, path, defaults)
		close(out)
	}()
	return out
}

// fetch issues one cache-busted GET and decodes the JSON body. Transport
// errors, non-200 statuses and malformed JSON are reported uniformly as
// "artifact unavailable".
func (c *Client) fetch(ctx context.Context, path string) (map[string]any, error) {
	url := c.artifactURL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityWarning, "build request")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityWarning, "fetch artifact").WithContext("path", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pipeerr.New(pipeerr.CategoryFetch, pipeerr.SeverityWarning,
			fmt.Sprintf("artifact unavailable: status %d", resp.StatusCode)).WithContext("path", path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityWarning, "read artifact body")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityWarning, "malformed artifact JSON").WithContext("path", path)
	}
	return payload, nil
}

// artifactURL appends the cache-busting timestamp query parameter.
func (c *Client) artifactURL(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/") + sep + "t=" + strconv.FormatInt(c.now().UnixMilli(), 10)
}

// ShallowMerge overlays fetched keys onto defaults: fetched keys win, keys
// present only in defaults survive. Neither input is mutated.
func ShallowMerge(defaults, fetched map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(fetched))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range fetched {
		merged[k] = v
	}
	return merged
}

// LocalizePath inserts the locale code before the artifact extension:
// company/basic-info.json -> company/basic-info.zh-hans.json.
func LocalizePath(path, locale string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return path + "." + locale
	}
	return path[:idx] + "." + locale + path[idx:]
}
