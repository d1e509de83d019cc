// Package imagecache deduplicates icon image loads by URL and replays the
// draws that were requested while an image was still loading.
//
// Loads run on their own goroutines but never touch cache state: results are
// handed back through Results and applied by the owner with Complete, on the
// same goroutine that calls Obtain.
package imagecache

import (
	"context"
	"image"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"markermap/internal/geom"
)

// State of a cache entry.
type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// DefaultMaxConcurrent bounds simultaneous loads when no limit is configured.
const DefaultMaxConcurrent = 8

// Result is the outcome of one load.
type Result struct {
	URL   string
	Image image.Image
	Err   error
}

// DrawFunc paints m's icon at pos.
type DrawFunc[M any] func(m M, img image.Image, pos geom.Point)

type request[M any] struct {
	marker M
	pos    geom.Point
}

type entry[M any] struct {
	img     image.Image
	state   State
	pending []request[M]
}

// Cache is keyed by icon URL. It is not safe for concurrent use; all methods
// except Results and Close belong to the owner's goroutine.
type Cache[M any] struct {
	loader   Loader
	draw     DrawFunc[M]
	keep     func(M, geom.Point) bool
	fallback image.Image
	log      zerolog.Logger

	entries map[string]*entry[M]
	results chan Result
	sem     *semaphore.Weighted
	ctx     context.Context
	cancel  context.CancelFunc
	metrics *metrics
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	maxConcurrent int64
	fallback      image.Image
	logger        zerolog.Logger
}

// MaxConcurrent bounds the number of loads in flight.
func MaxConcurrent(n int64) Option {
	return func(o *options) { o.maxConcurrent = n }
}

// Fallback is painted in place of icons that failed to load. Without one,
// failed icons are skipped.
func Fallback(img image.Image) Option {
	return func(o *options) { o.fallback = img }
}

// WithLogger sets the logger for load failures.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a cache that paints through draw. keep, when non-nil, is
// consulted before each replayed draw with the queued marker and position;
// draws it rejects are dropped.
func New[M any](loader Loader, draw DrawFunc[M], keep func(M, geom.Point) bool, opts ...Option) *Cache[M] {
	o := options{maxConcurrent: DefaultMaxConcurrent, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxConcurrent <= 0 {
		o.maxConcurrent = DefaultMaxConcurrent
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache[M]{
		loader:   loader,
		draw:     draw,
		keep:     keep,
		fallback: o.fallback,
		log:      o.logger,
		entries:  make(map[string]*entry[M]),
		results:  make(chan Result, 64),
		sem:      semaphore.NewWeighted(o.maxConcurrent),
		ctx:      ctx,
		cancel:   cancel,
		metrics:  newMetrics(),
	}
}

// Obtain returns the image for url when it is ready. Otherwise the draw of m
// at pos is queued for replay once the load completes, and the first request
// for a URL starts that load.
func (c *Cache[M]) Obtain(url string, m M, pos geom.Point) (image.Image, bool) {
	e, ok := c.entries[url]
	if !ok {
		e = &entry[M]{state: Loading}
		c.entries[url] = e
		e.pending = append(e.pending, request[M]{marker: m, pos: pos})
		c.start(url)
		return nil, false
	}
	switch e.state {
	case Ready:
		return e.img, true
	case Loading:
		e.pending = append(e.pending, request[M]{marker: m, pos: pos})
	}
	return nil, false
}

// State reports the entry state for url.
func (c *Cache[M]) State(url string) (State, bool) {
	e, ok := c.entries[url]
	if !ok {
		return 0, false
	}
	return e.state, true
}

// Pending returns the number of queued draws for url.
func (c *Cache[M]) Pending(url string) int {
	if e, ok := c.entries[url]; ok {
		return len(e.pending)
	}
	return 0
}

// Len returns the number of known URLs.
func (c *Cache[M]) Len() int { return len(c.entries) }

// Results delivers finished loads. The owner passes each one to Complete.
func (c *Cache[M]) Results() <-chan Result { return c.results }

// Complete applies a finished load and replays its queued draws in request
// order. It returns the number of draws performed.
func (c *Cache[M]) Complete(res Result) int {
	e, ok := c.entries[res.URL]
	if !ok || e.state != Loading {
		return 0
	}
	img := res.Image
	if res.Err != nil || img == nil {
		c.metrics.failed(res.URL)
		c.log.Error().Err(res.Err).Str("url", res.URL).Msg("icon load failed")
		if c.fallback == nil {
			e.state = Failed
			e.pending = nil
			return 0
		}
		img = c.fallback
	}
	e.img = img
	e.state = Ready
	queue := e.pending
	e.pending = nil
	drawn := 0
	for _, r := range queue {
		if c.keep != nil && !c.keep(r.marker, r.pos) {
			continue
		}
		c.draw(r.marker, img, r.pos)
		drawn++
	}
	return drawn
}

// Close cancels loads that have not finished. Their results are dropped.
func (c *Cache[M]) Close() {
	c.cancel()
}

func (c *Cache[M]) start(url string) {
	c.metrics.started(url)
	go func() {
		if err := c.sem.Acquire(c.ctx, 1); err != nil {
			return
		}
		img, err := c.loader.Load(c.ctx, url)
		c.sem.Release(1)
		if c.ctx.Err() != nil {
			return
		}
		select {
		case c.results <- Result{URL: url, Image: img, Err: err}:
		case <-c.ctx.Done():
		}
	}()
}
