package layer

import (
	"markermap/internal/canvas"
	"markermap/internal/geom"
)

// EventType names a map event.
type EventType string

const (
	EventMoveEnd     EventType = "moveend"
	EventResize      EventType = "resize"
	EventClick       EventType = "click"
	EventPointerMove EventType = "pointermove"
)

// Event is delivered by the map to subscribed handlers.
type Event struct {
	Type           EventType
	ContainerPoint geom.Point
	LatLng         geom.LatLng
}

// Handler receives map events.
type Handler func(Event)

// Cursor is the pointer affordance shown over the map.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorPointer
)

// Pane is a named stacking container on the map that surfaces are mounted in.
type Pane interface {
	Attach(s canvas.Surface)
	Detach(s canvas.Surface)
}

// Overlay is anything the map can host with an add/remove lifecycle.
type Overlay interface {
	OnAdd(m Map)
	OnRemove(m Map)
}

// Map is the host viewer. Container points are pixels relative to the
// top-left corner of the visible map; layer points are pixels relative to
// the origin the map's panes are positioned against.
type Map interface {
	// Bounds is the visible geographic rectangle (X = longitude, Y = latitude).
	Bounds() geom.BBox
	LatLngToContainerPoint(ll geom.LatLng) geom.Point
	ContainerPointToLayerPoint(p geom.Point) geom.Point
	// Size is the container size in pixels.
	Size() geom.Point
	// On subscribes h to events of type t and returns its unsubscribe func.
	On(t EventType, h Handler) (off func())
	Pane(name string) (Pane, bool)
	NewSurface() canvas.Surface
	SetCursor(c Cursor)
	AddLayer(o Overlay)
}
