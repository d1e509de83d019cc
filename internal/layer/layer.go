// Package layer draws large marker sets onto a single surface.
//
// An IconLayer keeps two R-trees: a geo index holding every registered
// marker at its longitude/latitude, and a pixel index holding the hit
// rectangles of the markers inside the viewport at the last redraw. The geo
// index is updated incrementally and rebuilt once removals fragment it; the
// pixel index is rebuilt on every redraw.
//
// Like the map that hosts it, an IconLayer is owned by one goroutine. Icon
// loads complete asynchronously; the host forwards ImageResults to
// ImageLoaded on that goroutine.
package layer

import (
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"markermap/internal/canvas"
	"markermap/internal/geom"
	"markermap/internal/imagecache"
	"markermap/internal/spatial"
)

type record struct {
	marker Marker
	geo    *Entry
	img    image.Image // shared, owned by the image cache
}

// IconLayer is a map overlay that renders markers with their icons.
type IconLayer struct {
	opts options
	log  zerolog.Logger

	m       Map
	surface canvas.Surface
	pane    Pane
	offs    []func()

	geo     *spatial.Tracked[Marker]
	pix     *spatial.Index[Marker]
	records map[int]*record
	images  *imagecache.Cache[Marker]

	click    []Listener
	hover    []Listener
	sub      Subscription
	clickOff func()
	hoverOff func()

	metrics *metrics
}

var _ Overlay = (*IconLayer)(nil)

// New creates a detached layer.
func New(opts ...Option) *IconLayer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	l := &IconLayer{
		opts:    o,
		log:     o.logger,
		records: make(map[int]*record),
		metrics: newMetrics(),
	}
	l.geo = spatial.NewTracked[Marker](o.minChildren, o.maxChildren, o.compactRatio)
	l.pix = spatial.New[Marker](o.minChildren, o.maxChildren)

	loader := o.loader
	if loader == nil {
		loader = imagecache.DefaultLoader()
	}
	copts := []imagecache.Option{
		imagecache.MaxConcurrent(o.maxConcurrent),
		imagecache.WithLogger(o.logger),
	}
	if o.fallback != nil {
		copts = append(copts, imagecache.Fallback(o.fallback))
	}
	l.images = imagecache.New[Marker](loader, l.drawLoaded, l.current, copts...)
	return l
}

// SetOptions applies opts and redraws. A pane change moves the surface; a
// branching or ratio change rebuilds the indexes. Image options only take
// effect in New.
func (l *IconLayer) SetOptions(opts ...Option) {
	prev := l.opts
	for _, opt := range opts {
		opt(&l.opts)
	}
	l.log = l.opts.logger

	if l.opts.minChildren != prev.minChildren || l.opts.maxChildren != prev.maxChildren ||
		l.opts.compactRatio != prev.compactRatio {
		all := l.geo.All()
		l.geo = spatial.NewTracked[Marker](l.opts.minChildren, l.opts.maxChildren, l.opts.compactRatio)
		l.geo.Load(all)
		l.pix = spatial.New[Marker](l.opts.minChildren, l.opts.maxChildren)
	}
	if l.opts.pane != prev.pane && l.pane != nil {
		l.pane.Detach(l.surface)
		l.pane = nil
		l.attach()
	}
	l.Redraw()
}

// OnAdd mounts the layer on m and draws it.
func (l *IconLayer) OnAdd(m Map) {
	l.m = m
	if l.surface == nil {
		l.surface = m.NewSurface()
	}
	l.attach()
	l.offs = append(l.offs,
		m.On(EventMoveEnd, l.onViewChange),
		m.On(EventResize, l.onViewChange),
	)
	l.subscribe()
	l.reset()
}

// OnRemove unmounts the layer. Markers stay registered.
func (l *IconLayer) OnRemove(Map) {
	if l.pane != nil {
		l.pane.Detach(l.surface)
		l.pane = nil
	}
	for _, off := range l.offs {
		off()
	}
	l.offs = nil
	if l.clickOff != nil {
		l.clickOff()
		l.clickOff = nil
	}
	if l.hoverOff != nil {
		l.hoverOff()
		l.hoverOff = nil
	}
	l.sub = Unsubscribed
	l.pix.Clear()
	l.m = nil
}

// AddTo adds the layer to m.
func (l *IconLayer) AddTo(m Map) *IconLayer {
	m.AddLayer(l)
	return l
}

func (l *IconLayer) attach() {
	p, ok := l.m.Pane(l.opts.pane)
	if !ok {
		l.log.Error().Str("pane", l.opts.pane).Msg("unknown pane")
		return
	}
	p.Attach(l.surface)
	l.pane = p
}

// AddMarker registers m. A marker inside the viewport is indexed for hit
// testing and drawn right away.
func (l *IconLayer) AddMarker(m Marker) {
	mk, ok := l.check(m)
	if !ok {
		return
	}
	geo, pix := l.register(mk)
	l.geo.Insert(geo)
	if pix != nil {
		l.pix.Insert(pix)
	}
}

// AddMarkers registers ms with one bulk load per index. Invalid entries are
// logged and skipped.
func (l *IconLayer) AddMarkers(ms []Marker) {
	vs := make([]any, len(ms))
	for i, m := range ms {
		vs[i] = m
	}
	l.addAll(vs)
}

// AddLayer registers v if it is a marker and logs an error otherwise.
func (l *IconLayer) AddLayer(v any) {
	mk, ok := l.check(v)
	if !ok {
		return
	}
	l.AddMarker(mk)
}

// AddLayers is AddMarkers for arbitrary values.
func (l *IconLayer) AddLayers(vs []any) {
	l.addAll(vs)
}

func (l *IconLayer) addAll(vs []any) {
	geos := make([]*Entry, 0, len(vs))
	var pixs []*Entry
	for _, v := range vs {
		mk, ok := l.check(v)
		if !ok {
			continue
		}
		geo, pix := l.register(mk)
		geos = append(geos, geo)
		if pix != nil {
			pixs = append(pixs, pix)
		}
	}
	l.pix.Load(pixs)
	l.geo.Load(geos)
}

func (l *IconLayer) check(v any) (Marker, bool) {
	mk, err := admit(v)
	if err != nil {
		l.log.Error().Err(err).Str("type", fmt.Sprintf("%T", v)).Msg("layer isn't a marker")
		add(l.metrics.rejected, 1)
		return nil, false
	}
	if _, dup := l.records[mk.StampID()]; dup {
		l.log.Debug().Int("id", mk.StampID()).Msg("marker already registered")
		return nil, false
	}
	return mk, true
}

// register stamps m, records it and returns its index entries. pix is nil
// unless m is inside the viewport, in which case it is also drawn.
func (l *IconLayer) register(m Marker) (geo, pix *Entry) {
	id := m.stamp()
	ll := m.LatLng()
	geo = &Entry{Box: geoBox(ll), Data: m}
	l.records[id] = &record{marker: m, geo: geo}
	add(l.metrics.added, 1)

	if l.m == nil || !l.m.Bounds().Contains(ll) {
		return geo, nil
	}
	pos := l.m.LatLngToContainerPoint(ll)
	l.drawMarker(m, pos)
	return geo, &Entry{Box: pixelBox(m, pos), Data: m}
}

// RemoveMarker unregisters target, a Marker or an *Entry from a listener.
// With redraw set, the layer is redrawn if the marker was inside the
// viewport. It reports whether the marker was registered.
func (l *IconLayer) RemoveMarker(target any, redraw bool) bool {
	var m Marker
	switch t := target.(type) {
	case *Entry:
		if t == nil {
			return false
		}
		m = t.Data
	case Marker:
		m = t
	default:
		l.log.Error().Str("type", fmt.Sprintf("%T", target)).Msg("layer isn't a marker")
		return false
	}
	rec, ok := l.records[m.StampID()]
	if !ok {
		return false
	}
	delete(l.records, m.StampID())
	l.geo.Remove(rec.geo, sameMarker)
	add(l.metrics.removed, 1)

	at := geom.LatLng{Lat: rec.geo.Box.MinY, Lng: rec.geo.Box.MinX}
	if redraw && l.m != nil && l.m.Bounds().Contains(at) {
		l.redraw(true)
	}
	return true
}

// RemoveLayer removes v and redraws if it was visible.
func (l *IconLayer) RemoveLayer(v any) {
	l.RemoveMarker(v, true)
}

// Redraw clears the surface and repaints every visible marker.
func (l *IconLayer) Redraw() {
	l.redraw(true)
}

func (l *IconLayer) onViewChange(Event) {
	l.reset()
}

// reset aligns the surface with the viewport and redraws.
func (l *IconLayer) reset() {
	if l.m == nil {
		return
	}
	l.surface.SetPosition(l.m.ContainerPointToLayerPoint(geom.Point{}))
	size := l.m.Size()
	l.surface.Resize(int(size.X), int(size.Y))
	l.redraw(false)
}

func (l *IconLayer) redraw(clear bool) {
	if l.m == nil {
		return
	}
	if clear {
		l.surface.Clear()
	}
	if l.geo.NeedsCompaction() {
		l.log.Debug().
			Int("total", l.geo.Total()).
			Int("dirty", l.geo.Dirty()).
			Msg("compacting geo index")
		l.geo.Compact()
		add(l.metrics.compactions, 1)
	}

	visible := l.geo.Search(l.m.Bounds())
	pixs := make([]*Entry, 0, len(visible))
	for _, e := range visible {
		pos := l.m.LatLngToContainerPoint(e.Data.LatLng())
		pixs = append(pixs, &Entry{Box: pixelBox(e.Data, pos), Data: e.Data})
		l.drawMarker(e.Data, pos)
	}
	l.pix.Clear()
	l.pix.Load(pixs)
	add(l.metrics.redraws, 1)
}

// drawMarker paints m at pos, or leaves it to the image cache if its icon
// is still loading.
func (l *IconLayer) drawMarker(m Marker, pos geom.Point) {
	rec := l.records[m.StampID()]
	if rec != nil && rec.img != nil {
		l.paint(m, rec.img, pos)
		return
	}
	img, ok := l.images.Obtain(m.Icon().URL, m, pos)
	if !ok {
		return
	}
	if rec != nil {
		rec.img = img
	}
	l.paint(m, img, pos)
}

func (l *IconLayer) drawLoaded(m Marker, img image.Image, pos geom.Point) {
	if rec := l.records[m.StampID()]; rec != nil {
		rec.img = img
	}
	l.paint(m, img, pos)
}

// current reports whether a draw queued for m at pos still belongs on the
// surface. A removed marker, or a view change since the draw was queued,
// makes it stale.
func (l *IconLayer) current(m Marker, pos geom.Point) bool {
	if _, ok := l.records[m.StampID()]; !ok || l.m == nil {
		return false
	}
	return l.m.LatLngToContainerPoint(m.LatLng()) == pos
}

// paint puts the icon's anchor on pos.
func (l *IconLayer) paint(m Marker, img image.Image, pos geom.Point) {
	ic := m.Icon()
	l.surface.DrawImage(img, pos.X-ic.Anchor.X, pos.Y-ic.Anchor.Y, ic.Size.X, ic.Size.Y)
}

// ImageResults delivers finished icon loads. Pass each to ImageLoaded on the
// goroutine that owns the layer.
func (l *IconLayer) ImageResults() <-chan imagecache.Result {
	return l.images.Results()
}

// ImageLoaded paints the draws that waited for res and returns their count.
func (l *IconLayer) ImageLoaded(res imagecache.Result) int {
	return l.images.Complete(res)
}

// Close stops outstanding icon loads.
func (l *IconLayer) Close() {
	l.images.Close()
}

// GeoStats describes the geo index. Ratio is the fragmentation that triggers
// compaction on the next redraw.
type GeoStats struct {
	Total         int
	Dirty         int
	Fragmentation float64
	Ratio         float64
	Visible       int
}

// Stats returns the geo index counters and the number of markers in the
// pixel index.
func (l *IconLayer) Stats() GeoStats {
	return GeoStats{
		Total:         l.geo.Total(),
		Dirty:         l.geo.Dirty(),
		Fragmentation: l.geo.Fragmentation(),
		Ratio:         l.geo.Ratio(),
		Visible:       l.pix.Len(),
	}
}

// Len returns the number of registered markers.
func (l *IconLayer) Len() int { return len(l.records) }

// Markers returns every registered marker in geo index order.
func (l *IconLayer) Markers() []Marker {
	all := l.geo.All()
	out := make([]Marker, 0, len(all))
	for _, e := range all {
		out = append(out, e.Data)
	}
	return out
}

// Extent is the bounding box of all registered markers (X = longitude).
func (l *IconLayer) Extent() (geom.BBox, bool) {
	var box geom.BBox
	first := true
	for _, r := range l.records {
		x, y := r.geo.Box.MinX, r.geo.Box.MinY
		if first {
			box, first = geom.PointBox(x, y), false
			continue
		}
		box = box.Extend(x, y)
	}
	return box, !first
}
