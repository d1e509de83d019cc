package layer

import "markermap/internal/geom"

// Listener receives a pointer event and the markers under it, in index
// order.
type Listener func(ev Event, hits []*Entry)

// Subscription records which pointer events the layer listens to on its map.
type Subscription int

const (
	Unsubscribed Subscription = iota
	SubscribedClick
	SubscribedHover
	SubscribedBoth
)

func (s Subscription) String() string {
	switch s {
	case Unsubscribed:
		return "unsubscribed"
	case SubscribedClick:
		return "click"
	case SubscribedHover:
		return "hover"
	case SubscribedBoth:
		return "click+hover"
	}
	return "unknown"
}

func (s Subscription) with(t EventType) Subscription {
	switch {
	case t == EventClick && s == Unsubscribed:
		return SubscribedClick
	case t == EventClick && s == SubscribedHover:
		return SubscribedBoth
	case t == EventPointerMove && s == Unsubscribed:
		return SubscribedHover
	case t == EventPointerMove && s == SubscribedClick:
		return SubscribedBoth
	}
	return s
}

func (s Subscription) has(t EventType) bool {
	switch t {
	case EventClick:
		return s == SubscribedClick || s == SubscribedBoth
	case EventPointerMove:
		return s == SubscribedHover || s == SubscribedBoth
	}
	return false
}

// Subscription returns the current pointer event subscription.
func (l *IconLayer) Subscription() Subscription { return l.sub }

// AddOnClickListener calls fn for clicks that hit at least one marker.
func (l *IconLayer) AddOnClickListener(fn Listener) {
	l.click = append(l.click, fn)
	l.subscribe()
}

// AddOnHoverListener calls fn for pointer moves over at least one marker.
func (l *IconLayer) AddOnHoverListener(fn Listener) {
	l.hover = append(l.hover, fn)
	l.subscribe()
}

// subscribe listens for every pointer event category that has listeners
// and is not yet subscribed. It never unsubscribes while attached.
func (l *IconLayer) subscribe() {
	if l.m == nil {
		return
	}
	if len(l.click) > 0 && !l.sub.has(EventClick) {
		l.clickOff = l.m.On(EventClick, l.resolve)
		l.sub = l.sub.with(EventClick)
	}
	if len(l.hover) > 0 && !l.sub.has(EventPointerMove) {
		l.hoverOff = l.m.On(EventPointerMove, l.resolve)
		l.sub = l.sub.with(EventPointerMove)
	}
}

// resolve finds the markers under the event's container point and hands them
// to the listeners of the event's category.
func (l *IconLayer) resolve(ev Event) {
	var ls []Listener
	switch ev.Type {
	case EventClick:
		ls = l.click
	case EventPointerMove:
		ls = l.hover
	}
	if len(ls) == 0 || l.m == nil {
		return
	}
	hits := l.HitsAt(ev.ContainerPoint)
	if len(hits) == 0 {
		l.m.SetCursor(CursorDefault)
		return
	}
	l.m.SetCursor(CursorPointer)
	for _, fn := range ls {
		fn(ev, hits)
	}
}

// HitsAt returns the pixel index entries containing p, one per marker.
// Markers removed since the last redraw are left out.
func (l *IconLayer) HitsAt(p geom.Point) []*Entry {
	found := l.pix.Search(geom.PointBox(p.X, p.Y))
	hits := found[:0]
	seen := make(map[int]struct{}, len(found))
	for _, e := range found {
		id := e.Data.StampID()
		if _, ok := l.records[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		hits = append(hits, e)
	}
	return hits
}
