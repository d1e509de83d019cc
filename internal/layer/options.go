package layer

import (
	"image"

	"github.com/rs/zerolog"

	"markermap/internal/imagecache"
	"markermap/internal/spatial"
)

// DefaultPane is where the layer mounts its surface unless configured.
const DefaultPane = "overlayPane"

type options struct {
	pane          string
	minChildren   int
	maxChildren   int
	compactRatio  float64
	logger        zerolog.Logger
	loader        imagecache.Loader
	fallback      image.Image
	maxConcurrent int64
}

func defaultOptions() options {
	return options{
		pane:          DefaultPane,
		minChildren:   spatial.DefaultMinChildren,
		maxChildren:   spatial.DefaultMaxChildren,
		compactRatio:  spatial.DefaultCompactRatio,
		logger:        zerolog.Nop(),
		maxConcurrent: imagecache.DefaultMaxConcurrent,
	}
}

// Option configures an IconLayer.
type Option func(*options)

// WithPane mounts the surface in the named map pane.
func WithPane(name string) Option {
	return func(o *options) {
		if name != "" {
			o.pane = name
		}
	}
}

// WithBranching sets the R-tree node fan-out of both indexes.
func WithBranching(minChildren, maxChildren int) Option {
	return func(o *options) { o.minChildren, o.maxChildren = minChildren, maxChildren }
}

// WithCompactRatio sets the dirty/total ratio that triggers a geo index
// rebuild.
func WithCompactRatio(r float64) Option {
	return func(o *options) { o.compactRatio = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLoader replaces the icon loader. The default handles http(s), file
// paths and builtin: pins.
func WithLoader(l imagecache.Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithFallback paints img for icons that fail to load.
func WithFallback(img image.Image) Option {
	return func(o *options) { o.fallback = img }
}

// WithMaxConcurrentLoads bounds icon loads in flight.
func WithMaxConcurrentLoads(n int64) Option {
	return func(o *options) { o.maxConcurrent = n }
}
