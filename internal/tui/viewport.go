package tui

import (
	"math"

	"github.com/wroge/wgs84"

	"markermap/internal/canvas"
	"markermap/internal/geom"
	"markermap/internal/layer"
)

// Map pixels are braille dots: two per terminal column, four per row.
const (
	dotsPerCol = 2
	dotsPerRow = 4

	tileSize = 256
	minZoom  = 0
	maxZoom  = 20

	// zoom used when fitting a single point
	pointZoom = 12

	maxLat = 85.0511287798

	// half the Web Mercator world width in metres
	earthHalf = math.Pi * 6378137
)

var (
	toMercator   = wgs84.EPSG().Transform(4326, 3857)
	fromMercator = wgs84.EPSG().Transform(3857, 4326)
)

// paneOrder lists the panes bottom to top.
var paneOrder = []string{"tilePane", layer.DefaultPane, "shadowPane", layer.MarkerPane, "tooltipPane"}

type pane struct {
	surfaces []canvas.Surface
}

func (p *pane) Attach(s canvas.Surface) { p.surfaces = append(p.surfaces, s) }

func (p *pane) Detach(s canvas.Surface) {
	for i, o := range p.surfaces {
		if o == s {
			p.surfaces = append(p.surfaces[:i], p.surfaces[i+1:]...)
			return
		}
	}
}

// viewport is the terminal map: a Web Mercator view of cols x rows cells
// centred on center.
type viewport struct {
	center     geom.LatLng
	zoom       int
	cols, rows int

	// world pixel of the top-left corner when the layer origin was last reset
	origin geom.Point

	handlers map[layer.EventType]map[int]layer.Handler
	nextID   int
	panes    map[string]*pane
	cursor   layer.Cursor
}

var _ layer.Map = (*viewport)(nil)

func newViewport(cols, rows int) *viewport {
	v := &viewport{
		zoom:     2,
		cols:     max(cols, 1),
		rows:     max(rows, 1),
		handlers: make(map[layer.EventType]map[int]layer.Handler),
		panes:    make(map[string]*pane),
	}
	for _, name := range paneOrder {
		v.panes[name] = &pane{}
	}
	v.origin = v.topLeft()
	return v
}

func worldSize(zoom int) float64 { return tileSize * math.Exp2(float64(zoom)) }

func clampLat(lat float64) float64 { return math.Max(-maxLat, math.Min(maxLat, lat)) }

// project returns the world pixel of ll at zoom.
func project(ll geom.LatLng, zoom int) geom.Point {
	x, y, _ := toMercator(ll.Lng, clampLat(ll.Lat), 0)
	scale := worldSize(zoom) / (2 * earthHalf)
	return geom.Point{X: (x + earthHalf) * scale, Y: (earthHalf - y) * scale}
}

func unproject(p geom.Point, zoom int) geom.LatLng {
	scale := worldSize(zoom) / (2 * earthHalf)
	lng, lat, _ := fromMercator(p.X/scale-earthHalf, earthHalf-p.Y/scale, 0)
	return geom.LatLng{Lat: lat, Lng: lng}
}

func (v *viewport) topLeft() geom.Point {
	s := v.Size()
	return project(v.center, v.zoom).Sub(geom.Point{X: s.X / 2, Y: s.Y / 2})
}

func (v *viewport) Size() geom.Point {
	return geom.Point{X: float64(v.cols * dotsPerCol), Y: float64(v.rows * dotsPerRow)}
}

func (v *viewport) Bounds() geom.BBox {
	nw := v.containerPointToLatLng(geom.Point{})
	se := v.containerPointToLatLng(v.Size())
	return geom.BBox{MinX: nw.Lng, MinY: se.Lat, MaxX: se.Lng, MaxY: nw.Lat}
}

func (v *viewport) LatLngToContainerPoint(ll geom.LatLng) geom.Point {
	return project(ll, v.zoom).Sub(v.topLeft())
}

func (v *viewport) containerPointToLatLng(p geom.Point) geom.LatLng {
	return unproject(p.Add(v.topLeft()), v.zoom)
}

func (v *viewport) ContainerPointToLayerPoint(p geom.Point) geom.Point {
	return p.Add(v.topLeft()).Sub(v.origin)
}

func (v *viewport) On(t layer.EventType, h layer.Handler) func() {
	if v.handlers[t] == nil {
		v.handlers[t] = make(map[int]layer.Handler)
	}
	v.nextID++
	id := v.nextID
	v.handlers[t][id] = h
	return func() { delete(v.handlers[t], id) }
}

func (v *viewport) Pane(name string) (layer.Pane, bool) {
	p, ok := v.panes[name]
	return p, ok
}

func (v *viewport) NewSurface() canvas.Surface { return canvas.NewBraille(v.cols, v.rows) }

func (v *viewport) SetCursor(c layer.Cursor) { v.cursor = c }

func (v *viewport) AddLayer(o layer.Overlay) { o.OnAdd(v) }

func (v *viewport) fire(ev layer.Event) {
	for _, h := range v.handlers[ev.Type] {
		h(ev)
	}
}

// pointerEvent fires a click or pointermove at a container point.
func (v *viewport) pointerEvent(t layer.EventType, p geom.Point) {
	v.fire(layer.Event{Type: t, ContainerPoint: p, LatLng: v.containerPointToLatLng(p)})
}

// resize changes the size in cells and fires resize.
func (v *viewport) resize(cols, rows int) {
	cols, rows = max(cols, 1), max(rows, 1)
	if cols == v.cols && rows == v.rows {
		return
	}
	v.cols, v.rows = cols, rows
	v.origin = v.topLeft()
	v.fire(layer.Event{Type: layer.EventResize})
}

// panBy moves the view by d dots and fires moveend.
func (v *viewport) panBy(d geom.Point) {
	v.center = unproject(project(v.center, v.zoom).Add(d), v.zoom)
	v.center.Lat = clampLat(v.center.Lat)
	v.fire(layer.Event{Type: layer.EventMoveEnd})
}

// setView changes centre and zoom and fires moveend.
func (v *viewport) setView(center geom.LatLng, zoom int) {
	v.center = geom.LatLng{Lat: clampLat(center.Lat), Lng: center.Lng}
	v.zoom = max(minZoom, min(maxZoom, zoom))
	v.origin = v.topLeft()
	v.fire(layer.Event{Type: layer.EventMoveEnd})
}

func (v *viewport) zoomBy(d int) { v.setView(v.center, v.zoom+d) }

// fitBounds picks the highest zoom at which b fits and centres on it.
func (v *viewport) fitBounds(b geom.BBox) {
	nw := project(geom.LatLng{Lat: b.MaxY, Lng: b.MinX}, 0)
	se := project(geom.LatLng{Lat: b.MinY, Lng: b.MaxX}, 0)
	center := unproject(geom.Point{X: (nw.X + se.X) / 2, Y: (nw.Y + se.Y) / 2}, 0)

	size := v.Size()
	zoom := pointZoom
	dx, dy := se.X-nw.X, se.Y-nw.Y
	if dx > 0 || dy > 0 {
		zx := math.Log2(size.X / math.Max(dx, 1e-9))
		zy := math.Log2(size.Y / math.Max(dy, 1e-9))
		zoom = int(math.Floor(math.Min(zx, zy)))
	}
	v.setView(center, zoom)
}

// compose stacks every braille surface in pane order. Each surface sits at
// its layer position, snapped to whole cells.
func (v *viewport) compose() *canvas.Braille {
	out := canvas.NewBraille(v.cols, v.rows)
	zero := v.ContainerPointToLayerPoint(geom.Point{})
	for _, name := range paneOrder {
		for _, s := range v.panes[name].surfaces {
			b, ok := s.(*canvas.Braille)
			if !ok {
				continue
			}
			off := b.Position().Sub(zero)
			out.Overlay(b, int(math.Round(off.X/dotsPerCol)), int(math.Round(off.Y/dotsPerRow)))
		}
	}
	return out
}

func (v *viewport) render() string { return v.compose().Render() }
