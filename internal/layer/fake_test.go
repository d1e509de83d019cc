package layer

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"markermap/internal/canvas"
	"markermap/internal/geom"
)

type drawOp struct {
	img        image.Image
	x, y, w, h float64
}

type fakeSurface struct {
	w, h   int
	pos    geom.Point
	draws  []drawOp
	clears int
}

var _ canvas.Surface = (*fakeSurface)(nil)

func (s *fakeSurface) Size() (int, int)         { return s.w, s.h }
func (s *fakeSurface) Resize(w, h int)          { s.w, s.h = w, h; s.draws = nil }
func (s *fakeSurface) Position() geom.Point     { return s.pos }
func (s *fakeSurface) SetPosition(p geom.Point) { s.pos = p }
func (s *fakeSurface) Clear()                   { s.clears++; s.draws = nil }
func (s *fakeSurface) DrawImage(img image.Image, x, y, w, h float64) {
	s.draws = append(s.draws, drawOp{img: img, x: x, y: y, w: w, h: h})
}

type fakePane struct {
	mounted []canvas.Surface
}

func (p *fakePane) Attach(s canvas.Surface) { p.mounted = append(p.mounted, s) }
func (p *fakePane) Detach(s canvas.Surface) {
	for i, m := range p.mounted {
		if m == s {
			p.mounted = append(p.mounted[:i], p.mounted[i+1:]...)
			return
		}
	}
}

// fakeMap projects linearly: bounds span the whole container.
type fakeMap struct {
	bounds   geom.BBox
	size     geom.Point
	origin   geom.Point
	handlers map[EventType]map[int]Handler
	ons      map[EventType]int
	nextID   int
	panes    map[string]*fakePane
	surface  *fakeSurface
	cursor   Cursor
}

var _ Map = (*fakeMap)(nil)

func newFakeMap() *fakeMap {
	return &fakeMap{
		bounds:   geom.BBox{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10},
		size:     geom.Point{X: 200, Y: 200},
		handlers: make(map[EventType]map[int]Handler),
		ons:      make(map[EventType]int),
		panes:    map[string]*fakePane{DefaultPane: {}, MarkerPane: {}, "custom": {}},
		surface:  &fakeSurface{},
	}
}

func (f *fakeMap) Bounds() geom.BBox { return f.bounds }

func (f *fakeMap) LatLngToContainerPoint(ll geom.LatLng) geom.Point {
	sx := f.size.X / (f.bounds.MaxX - f.bounds.MinX)
	sy := f.size.Y / (f.bounds.MaxY - f.bounds.MinY)
	return geom.Point{X: (ll.Lng - f.bounds.MinX) * sx, Y: (f.bounds.MaxY - ll.Lat) * sy}
}

func (f *fakeMap) ContainerPointToLayerPoint(p geom.Point) geom.Point { return p.Add(f.origin) }
func (f *fakeMap) Size() geom.Point                                 { return f.size }

func (f *fakeMap) On(t EventType, h Handler) func() {
	f.ons[t]++
	if f.handlers[t] == nil {
		f.handlers[t] = make(map[int]Handler)
	}
	f.nextID++
	id := f.nextID
	f.handlers[t][id] = h
	return func() { delete(f.handlers[t], id) }
}

func (f *fakeMap) Pane(name string) (Pane, bool) {
	p, ok := f.panes[name]
	return p, ok
}

func (f *fakeMap) NewSurface() canvas.Surface { return f.surface }
func (f *fakeMap) SetCursor(c Cursor)         { f.cursor = c }
func (f *fakeMap) AddLayer(o Overlay)         { o.OnAdd(f) }

func (f *fakeMap) emit(ev Event) {
	for _, h := range f.handlers[ev.Type] {
		h(ev)
	}
}

func (f *fakeMap) listening(t EventType) int { return len(f.handlers[t]) }

// move shifts the viewport and fires moveend.
func (f *fakeMap) move(b geom.BBox) {
	f.bounds = b
	f.emit(Event{Type: EventMoveEnd})
}

type stubLoader struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
	imgs  map[string]image.Image
}

func newStubLoader() *stubLoader {
	return &stubLoader{calls: map[string]int{}, fail: map[string]bool{}, imgs: map[string]image.Image{}}
}

func (s *stubLoader) Load(_ context.Context, url string) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[url]++
	if s.fail[url] {
		return nil, errors.New("not found")
	}
	img, ok := s.imgs[url]
	if !ok {
		img = image.NewRGBA(image.Rect(0, 0, 4, 4))
		s.imgs[url] = img
	}
	return img, nil
}

func (s *stubLoader) count(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

// pump applies n finished loads on the test goroutine.
func pump(t *testing.T, l *IconLayer, n int) int {
	t.Helper()
	drawn := 0
	for i := 0; i < n; i++ {
		select {
		case res := <-l.ImageResults():
			drawn += l.ImageLoaded(res)
		case <-time.After(2 * time.Second):
			t.Fatalf("waited for %d loads, got %d", n, i)
		}
	}
	return drawn
}

func icon(url string) *Icon {
	return &Icon{URL: url, Size: geom.Point{X: 10, Y: 10}, Anchor: geom.Point{X: 5, Y: 10}}
}

func marker(lng, lat float64) *Basic {
	return NewMarker(geom.LatLng{Lat: lat, Lng: lng}, icon("pin.png"))
}

// notAMarker has a position and an icon but no identity.
type notAMarker struct{}

func (notAMarker) LatLng() geom.LatLng { return geom.LatLng{} }
func (notAMarker) Icon() *Icon         { return icon("x.png") }
func (notAMarker) Pane() string        { return MarkerPane }
