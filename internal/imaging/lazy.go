package imaging

import (
	"context"
	"log/slog"
	"sync"
)

// LoadState tracks an image through its deferred-load lifecycle.
// Transitions only move forward: idle, loading, then loaded or errored.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateErrored
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Fetcher retrieves the bytes behind an image URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) error
}

// Observer watches element positions against a scrolling viewport and
// fires each watch at most once, as soon as the position comes within
// margin rows of the visible range. After firing, the watch is released.
type Observer struct {
	mu      sync.Mutex
	top     int
	height  int
	margin  int
	watches map[string]watch
}

type watch struct {
	pos int
	fn  func()
}

// NewObserver creates an observer for a viewport of the given height.
// margin is the pre-load distance: watches fire before their element is
// strictly visible.
func NewObserver(height, margin int) *Observer {
	return &Observer{
		height:  height,
		margin:  margin,
		watches: make(map[string]watch),
	}
}

// Observe registers a watch for key at the given position. A position
// already within range fires immediately. Re-observing a key replaces
// its watch.
func (o *Observer) Observe(key string, pos int, fn func()) {
	o.mu.Lock()
	o.watches[key] = watch{pos: pos, fn: fn}
	due := o.collectDueLocked()
	o.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// Unobserve releases a still-pending watch. Unknown keys are ignored.
func (o *Observer) Unobserve(key string) {
	o.mu.Lock()
	delete(o.watches, key)
	o.mu.Unlock()
}

// SetOffset scrolls the viewport to the given top position and fires any
// watches that came into range.
func (o *Observer) SetOffset(top int) {
	o.mu.Lock()
	o.top = top
	due := o.collectDueLocked()
	o.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// Pending returns the number of still-registered watches.
func (o *Observer) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.watches)
}

func (o *Observer) collectDueLocked() []func() {
	var due []func()
	for key, w := range o.watches {
		if w.pos >= o.top-o.margin && w.pos <= o.top+o.height+o.margin {
			due = append(due, w.fn)
			delete(o.watches, key)
		}
	}
	return due
}

// ImageConfig wires one lazily loaded image.
type ImageConfig struct {
	Key       string
	Source    string // raw reference, resolved via Resolve
	Preset    Preset
	APIOrigin string
	Fallback  string // substituted once on load failure
	Fetcher   Fetcher
	Observer  *Observer
	OnChange  func(LoadState) // optional, called on every transition
	Log       *slog.Logger
}

// Image defers fetching its source until the observer reports viewport
// proximity. Exactly one load attempt is made per image; a failed load
// substitutes the fallback reference and is not retried.
type Image struct {
	cfg ImageConfig

	mu    sync.Mutex
	ctx   context.Context
	state LoadState
	src   string
}

// NewImage resolves the source reference and returns an idle image.
func NewImage(cfg ImageConfig) *Image {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Image{
		cfg: cfg,
		src: Resolve(cfg.Source, cfg.Preset, cfg.APIOrigin),
	}
}

// Mount registers the image with its observer at the given position. The
// context bounds the eventual fetch.
func (im *Image) Mount(ctx context.Context, pos int) {
	im.mu.Lock()
	im.ctx = ctx
	im.mu.Unlock()
	im.cfg.Observer.Observe(im.cfg.Key, pos, im.load)
}

// Teardown releases a still-pending watch. Call on element removal.
func (im *Image) Teardown() {
	im.cfg.Observer.Unobserve(im.cfg.Key)
}

// State returns the current load state.
func (im *Image) State() LoadState {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.state
}

// Src returns the resolved reference, or the fallback once errored.
func (im *Image) Src() string {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.src
}

func (im *Image) load() {
	im.mu.Lock()
	if im.state != StateIdle {
		im.mu.Unlock()
		return
	}
	im.state = StateLoading
	ctx := im.ctx
	src := im.src
	im.mu.Unlock()
	im.change(StateLoading)

	if ctx == nil {
		ctx = context.Background()
	}
	if src == "" {
		im.fail(nil)
		return
	}
	if err := im.cfg.Fetcher.Fetch(ctx, src); err != nil {
		im.cfg.Log.Warn("image load failed", "src", src, "err", err)
		im.fail(err)
		return
	}
	im.mu.Lock()
	im.state = StateLoaded
	im.mu.Unlock()
	im.change(StateLoaded)
}

func (im *Image) fail(_ error) {
	im.mu.Lock()
	im.state = StateErrored
	im.src = im.cfg.Fallback
	im.mu.Unlock()
	im.change(StateErrored)
}

func (im *Image) change(state LoadState) {
	if im.cfg.OnChange != nil {
		im.cfg.OnChange(state)
	}
}
