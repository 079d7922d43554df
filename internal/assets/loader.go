// Package assets loads external resources (scripts, images) over HTTP at
// most once per URL. Concurrent requesters for the same URL share a single
// in-flight attempt and its outcome; successes are cached, failures are not,
// so the caller owns any fallback decision.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/revo-studio/storefront/internal/obs"
)

// Kind distinguishes what "usable" means for a resource.
type Kind string

const (
	// KindScript resources only need a non-empty body.
	KindScript Kind = "script"
	// KindImage resources must decode as an image.
	KindImage Kind = "image"
)

// LoadState tracks a URL through its lifecycle.
type LoadState string

const (
	StateUnloaded LoadState = "unloaded"
	StateLoading  LoadState = "loading"
	StateLoaded   LoadState = "loaded"
	StateFailed   LoadState = "failed"
)

// ErrEmptyBody is returned when a script resource has no content.
var ErrEmptyBody = errors.New("assets: empty body")

// Resource is a successfully loaded external resource.
type Resource struct {
	URL         string
	Kind        Kind
	Data        []byte
	ContentType string
	// Width and Height are set for image resources.
	Width  int
	Height int
}

// Loader fetches and caches external resources.
type Loader struct {
	Client  *http.Client
	Logger  zerolog.Logger
	MaxSize int64

	group  singleflight.Group
	mu     sync.RWMutex
	loaded map[string]*Resource
	states map[string]LoadState
}

// NewLoader constructs a Loader around the given client.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Loader{
		Client:  client,
		loaded:  map[string]*Resource{},
		states:  map[string]LoadState{},
		MaxSize: 8 << 20,
	}
}

// Load resolves when the resource is usable. A second call for a URL while
// the first is pending attaches to the same outcome; a call after success
// returns the cached resource immediately.
func (l *Loader) Load(ctx context.Context, url string, kind Kind) (*Resource, error) {
	if l == nil {
		return nil, errors.New("assets: loader not configured")
	}
	if url == "" {
		return nil, errors.New("assets: url is required")
	}
	if res := l.cached(url); res != nil {
		return res, nil
	}

	v, err, _ := l.group.Do(url, func() (any, error) {
		if res := l.cached(url); res != nil {
			return res, nil
		}
		l.setState(url, StateLoading)
		res, err := l.fetch(ctx, url, kind)
		if err != nil {
			l.setState(url, StateFailed)
			l.count(kind, "failed")
			return nil, err
		}
		l.mu.Lock()
		l.loaded[url] = res
		l.states[url] = StateLoaded
		l.mu.Unlock()
		l.count(kind, "loaded")
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resource), nil
}

// State reports where a URL is in its lifecycle.
func (l *Loader) State(url string) LoadState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if state, ok := l.states[url]; ok {
		return state
	}
	return StateUnloaded
}

func (l *Loader) cached(url string) *Resource {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded[url]
}

func (l *Loader) setState(url string, state LoadState) {
	l.mu.Lock()
	l.states[url] = state
	l.mu.Unlock()
}

func (l *Loader) fetch(ctx context.Context, url string, kind Kind) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("assets: build request: %w", err)
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assets: fetch %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("assets: fetch %s: status %d", url, resp.StatusCode)
	}
	limit := l.MaxSize
	if limit <= 0 {
		limit = 8 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", url, err)
	}

	res := &Resource{
		URL:         url,
		Kind:        kind,
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}
	switch kind {
	case KindImage:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("assets: decode image %s: %w", url, err)
		}
		res.Width = cfg.Width
		res.Height = cfg.Height
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, fmt.Errorf("assets: %s: %w", url, ErrEmptyBody)
		}
	}
	return res, nil
}

func (l *Loader) count(kind Kind, result string) {
	if obs.AssetLoadsTotal != nil {
		obs.AssetLoadsTotal.WithLabelValues(string(kind), result).Inc()
	}
}
