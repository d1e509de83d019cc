package layer

import (
	"errors"
	"fmt"
	"sync/atomic"

	"markermap/internal/geom"
	"markermap/internal/spatial"
)

// MarkerPane is the pane tag markers must carry to be admitted.
const MarkerPane = "markerPane"

var (
	ErrNotMarker = errors.New("layer isn't a marker")
	ErrNoIcon    = errors.New("marker has no icon")
)

// Icon describes how to paint a marker: an image URL drawn at Size pixels
// with Anchor (offset from the top-left corner) placed on the marker position.
type Icon struct {
	URL    string
	Size   geom.Point
	Anchor geom.Point
}

var lastStamp atomic.Int64

// Stamp gives a marker its layer identity. Embed it in marker types.
// The id is assigned once, on first registration, and never changes.
type Stamp struct {
	id int
}

// StampID returns the id, or 0 if the marker was never registered.
func (s *Stamp) StampID() int { return s.id }

func (s *Stamp) stamp() int {
	if s.id == 0 {
		s.id = int(lastStamp.Add(1))
	}
	return s.id
}

// Marker is what the layer accepts. Implementations embed Stamp.
type Marker interface {
	LatLng() geom.LatLng
	Icon() *Icon
	Pane() string
	StampID() int
	stamp() int
}

// Entry is an index rectangle pointing back at its marker.
type Entry = spatial.Entry[Marker]

// Basic is a plain marker with a title and free-form properties.
type Basic struct {
	Stamp
	Pos   geom.LatLng
	Ico   *Icon
	Title string
	Props map[string]string
	// PaneName overrides MarkerPane when set.
	PaneName string
}

// NewMarker returns a marker at pos drawn with icon.
func NewMarker(pos geom.LatLng, icon *Icon) *Basic {
	return &Basic{Pos: pos, Ico: icon}
}

func (b *Basic) LatLng() geom.LatLng { return b.Pos }
func (b *Basic) Icon() *Icon         { return b.Ico }

func (b *Basic) Pane() string {
	if b.PaneName == "" {
		return MarkerPane
	}
	return b.PaneName
}

// admit checks that v can be managed by the layer.
func admit(v any) (Marker, error) {
	m, ok := v.(Marker)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotMarker, v)
	}
	if m.Pane() != MarkerPane {
		return nil, fmt.Errorf("%w: pane %q", ErrNotMarker, m.Pane())
	}
	if ic := m.Icon(); ic == nil || ic.URL == "" {
		return nil, ErrNoIcon
	}
	return m, nil
}

func sameMarker(a, b *Entry) bool {
	return a.Data.StampID() == b.Data.StampID()
}

// pixelBox is the hit rectangle of a marker drawn at pos: pos +/- half the
// icon size.
func pixelBox(m Marker, pos geom.Point) geom.BBox {
	half := geom.Point{X: m.Icon().Size.X / 2, Y: m.Icon().Size.Y / 2}
	return geom.BBox{MinX: pos.X - half.X, MinY: pos.Y - half.Y, MaxX: pos.X + half.X, MaxY: pos.Y + half.Y}
}

func geoBox(ll geom.LatLng) geom.BBox {
	return geom.PointBox(ll.Lng, ll.Lat)
}
