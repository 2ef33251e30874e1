// Package browser models the document context the exporter talks to: a tab that
// loads one page, reports its ready state and holds at most one message listener.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"coursexport/internal/config"
	"coursexport/internal/crawler"
	"coursexport/internal/extract"
	"coursexport/internal/logger"
	"coursexport/internal/protocol"
)

// ReadyState mirrors document.readyState.
type ReadyState string

// Ready states.
const (
	StateLoading  ReadyState = "loading"
	StateComplete ReadyState = "complete"
)

// ErrNotLoaded is returned when the tab has no document to act on.
var ErrNotLoaded = errors.New("tab has no loaded document")

// Options configures a Tab.
type Options struct {
	Selectors config.Selectors
	// AutoAttach registers the content script when a load completes and the URL
	// contains Match.
	AutoAttach bool
	Match      string
	Logger     *logger.Logger
}

// OptionsFromConfig builds tab options from the exporter configuration.
func OptionsFromConfig(cfg *config.Config, log *logger.Logger) Options {
	return Options{
		Selectors:  cfg.Exporter.Selectors,
		AutoAttach: cfg.Exporter.ContentScript.AutoAttach,
		Match:      cfg.Exporter.ContentScript.Match,
		Logger:     log,
	}
}

// Tab holds one page. Reloads complete on a background goroutine.
type Tab struct {
	url    string
	loader crawler.Loader
	opts   Options
	log    *logger.Logger

	mu       sync.Mutex
	state    ReadyState
	page     *extract.Page
	loadErr  error
	loaded   chan struct{}
	listener Listener
}

// NewTab creates a tab for pageURL. Nothing is loaded until Navigate or Reload.
func NewTab(pageURL string, loader crawler.Loader, opts Options) *Tab {
	log := logger.OrDiscard(opts.Logger).With("url", pageURL)

	loaded := make(chan struct{})

	return &Tab{
		url:    pageURL,
		loader: loader,
		opts:   opts,
		log:    log,
		state:  StateLoading,
		loaded: loaded,
	}
}

// URL returns the page location.
func (t *Tab) URL() string {
	return t.url
}

// ReadyState returns the state of the current load.
func (t *Tab) ReadyState() ReadyState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// HasListener reports whether a listener is registered for the current document.
func (t *Tab) HasListener() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.listener != nil
}

// Navigate loads the page and waits for it to complete.
func (t *Tab) Navigate(ctx context.Context) error {
	if err := t.Reload(ctx); err != nil {
		return err
	}

	return t.WaitComplete(ctx)
}

// Reload starts a new load and returns without waiting for it. The current
// document and its listener are discarded.
func (t *Tab) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})

	t.mu.Lock()
	t.state = StateLoading
	t.page = nil
	t.loadErr = nil
	t.listener = nil
	t.loaded = done
	t.mu.Unlock()

	t.log.Debug("load started")

	// The load outlives the caller's deadline; WaitComplete bounds the wait.
	go t.load(context.WithoutCancel(ctx), done)

	return nil
}

func (t *Tab) load(ctx context.Context, done chan struct{}) {
	defer close(done)

	page, err := t.fetch(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	// Superseded by a later Reload.
	if t.loaded != done {
		return
	}

	t.state = StateComplete
	t.page = page
	t.loadErr = err

	if err != nil {
		t.log.Warn("load failed", "error", err)

		return
	}

	if t.opts.AutoAttach && strings.Contains(page.URL.Path, t.opts.Match) {
		t.listener = ContentScript(page, t.log)
	}

	t.log.Debug("load complete", "listener", t.listener != nil)
}

func (t *Tab) fetch(ctx context.Context) (*extract.Page, error) {
	html, err := t.loader.Load(ctx, t.url)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}

	return extract.NewPageFromString(t.url, html, t.opts.Selectors)
}

// WaitComplete blocks until the latest load completes or ctx is done. It returns
// the load error, if any.
func (t *Tab) WaitComplete(ctx context.Context) error {
	for {
		t.mu.Lock()
		done := t.loaded
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}

		t.mu.Lock()
		current := t.loaded == done
		err := t.loadErr
		t.mu.Unlock()

		if current {
			return err
		}
	}
}

// InjectScript registers the content script on the current document. Injecting
// twice leaves a single listener.
func (t *Tab) InjectScript(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateComplete || t.page == nil {
		return ErrNotLoaded
	}

	if t.listener == nil {
		t.listener = ContentScript(t.page, t.log)
		t.log.Debug("content script injected")
	}

	return nil
}

// Detach removes the listener, as when the content script is torn down while the
// document stays loaded.
func (t *Tab) Detach() {
	t.mu.Lock()
	t.listener = nil
	t.mu.Unlock()
}

// SendMessage delivers req to the listener across a JSON boundary.
// It returns protocol.ErrNoReceiver when no listener is registered.
func (t *Tab) SendMessage(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	t.mu.Lock()
	listener := t.listener
	t.mu.Unlock()

	if listener == nil {
		return protocol.Response{}, protocol.ErrNoReceiver
	}

	raw, err := protocol.EncodeRequest(req)
	if err != nil {
		return protocol.Response{}, err
	}

	out, err := listener(ctx, raw)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("listener failed: %w", err)
	}

	return protocol.DecodeResponse(out)
}
