package tui

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markermap/internal/geom"
	"markermap/internal/layer"
)

func TestProjectRoundTrip(t *testing.T) {
	for _, ll := range []geom.LatLng{{Lat: 48.137, Lng: 11.575}, {Lat: -33.86, Lng: 151.2}, {}} {
		p := project(ll, 7)
		got := unproject(p, 7)
		assert.InDelta(t, ll.Lat, got.Lat, 1e-6)
		assert.InDelta(t, ll.Lng, got.Lng, 1e-6)
	}
	origin := project(geom.LatLng{}, 0)
	assert.InDelta(t, tileSize/2, origin.X, 1e-6)
	assert.InDelta(t, tileSize/2, origin.Y, 1e-6)
}

func TestViewport_CenterAndBounds(t *testing.T) {
	v := newViewport(40, 10)
	v.setView(geom.LatLng{Lat: 48, Lng: 11}, 8)

	size := v.Size()
	assert.Equal(t, geom.Point{X: 80, Y: 40}, size)
	c := v.LatLngToContainerPoint(v.center)
	assert.InDelta(t, 40, c.X, 1e-6)
	assert.InDelta(t, 20, c.Y, 1e-6)

	b := v.Bounds()
	assert.True(t, b.Contains(v.center))
	assert.Less(t, b.MinX, b.MaxX)
	assert.Less(t, b.MinY, b.MaxY)

	nw := v.LatLngToContainerPoint(geom.LatLng{Lat: b.MaxY, Lng: b.MinX})
	assert.InDelta(t, 0, nw.X, 1e-6)
	assert.InDelta(t, 0, nw.Y, 1e-6)
}

func TestViewport_Events(t *testing.T) {
	v := newViewport(10, 5)
	var got []layer.EventType
	off := v.On(layer.EventMoveEnd, func(ev layer.Event) { got = append(got, ev.Type) })
	v.On(layer.EventResize, func(ev layer.Event) { got = append(got, ev.Type) })

	v.panBy(geom.Point{X: 4})
	v.zoomBy(1)
	v.resize(20, 5)
	v.resize(20, 5)
	assert.Equal(t, []layer.EventType{layer.EventMoveEnd, layer.EventMoveEnd, layer.EventResize}, got)

	off()
	v.panBy(geom.Point{X: 4})
	assert.Len(t, got, 3)
}

func TestViewport_PanMovesEast(t *testing.T) {
	v := newViewport(10, 5)
	v.setView(geom.LatLng{Lat: 10, Lng: 10}, 6)
	before := v.center
	v.panBy(geom.Point{X: 10})
	assert.Greater(t, v.center.Lng, before.Lng)
	assert.InDelta(t, before.Lat, v.center.Lat, 1e-9)
}

func TestViewport_ZoomClamped(t *testing.T) {
	v := newViewport(10, 5)
	v.setView(geom.LatLng{}, 50)
	assert.Equal(t, maxZoom, v.zoom)
	v.setView(geom.LatLng{}, -3)
	assert.Equal(t, minZoom, v.zoom)
}

func TestViewport_FitBounds(t *testing.T) {
	v := newViewport(60, 20)
	b := geom.BBox{MinX: 11.4, MinY: 48.0, MaxX: 11.7, MaxY: 48.2}
	v.fitBounds(b)

	vb := v.Bounds()
	assert.True(t, vb.Contains(geom.LatLng{Lat: b.MinY, Lng: b.MinX}))
	assert.True(t, vb.Contains(geom.LatLng{Lat: b.MaxY, Lng: b.MaxX}))
	assert.Greater(t, v.zoom, 5)

	v.fitBounds(geom.PointBox(2, 3))
	assert.Equal(t, pointZoom, v.zoom)
	assert.InDelta(t, 3, v.center.Lat, 1e-6)
}

func TestViewport_LayerPointFollowsPan(t *testing.T) {
	v := newViewport(10, 5)
	assert.Equal(t, geom.Point{}, v.ContainerPointToLayerPoint(geom.Point{}))
	v.panBy(geom.Point{X: 8, Y: -4})
	lp := v.ContainerPointToLayerPoint(geom.Point{})
	assert.InDelta(t, 8, lp.X, 1e-6)
	assert.InDelta(t, -4, lp.Y, 1e-6)
}

func TestViewport_PanesAndRender(t *testing.T) {
	v := newViewport(4, 2)
	p, ok := v.Pane(layer.MarkerPane)
	require.True(t, ok)
	_, ok = v.Pane("nope")
	assert.False(t, ok)

	s := v.NewSurface()
	px := image.NewRGBA(image.Rect(0, 0, 1, 1))
	px.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	s.DrawImage(px, 0, 0, 1, 1)
	p.Attach(s)
	assert.Contains(t, v.render(), "⠁")

	p.Detach(s)
	assert.NotContains(t, v.render(), "⠁")
}

func TestViewport_ComposeHonoursSurfacePosition(t *testing.T) {
	v := newViewport(4, 3)
	p, ok := v.Pane(layer.DefaultPane)
	require.True(t, ok)

	s := v.NewSurface()
	px := image.NewRGBA(image.Rect(0, 0, 1, 1))
	px.SetRGBA(0, 0, color.RGBA{G: 255, A: 255})
	s.DrawImage(px, 6, 0, 1, 1)
	p.Attach(s)
	require.True(t, v.compose().Dot(6, 0))

	s.SetPosition(geom.Point{X: -2, Y: 4})
	out := v.compose()
	assert.True(t, out.Dot(4, 4), "one cell left, one cell down")
	assert.False(t, out.Dot(6, 0))

	// Without a redraw the surface travels with the map.
	s.SetPosition(geom.Point{})
	v.panBy(geom.Point{X: 4})
	assert.True(t, v.compose().Dot(2, 0))
}

func TestViewport_HostsIconLayer(t *testing.T) {
	v := newViewport(20, 10)
	v.setView(geom.LatLng{}, 3)
	l := layer.New()
	defer l.Close()
	l.AddTo(v)

	mk := layer.NewMarker(geom.LatLng{Lat: 1, Lng: 1}, &layer.Icon{URL: "builtin:red", Size: geom.Point{X: 4, Y: 4}})
	l.AddMarker(mk)
	p := v.LatLngToContainerPoint(mk.LatLng())
	assert.Len(t, l.HitsAt(p), 1)

	v.panBy(geom.Point{X: 1000})
	assert.Empty(t, l.HitsAt(p), "moveend rebuilt the pixel index")
	assert.Equal(t, 0, l.Stats().Visible)
}
