package geom

import "errors"

// ErrNoPoints is returned by loaders when a file holds no usable point.
var ErrNoPoints = errors.New("no points found")

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Point is a position in pixel space, origin at the container top-left.
type Point struct {
	X float64
	Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// BBox is an axis-aligned rectangle with inclusive edges.
// For geographic boxes X is longitude and Y is latitude.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// PointBox returns the degenerate box at (x, y).
func PointBox(x, y float64) BBox {
	return BBox{MinX: x, MinY: y, MaxX: x, MaxY: y}
}

// Contains reports whether ll lies inside b, edges included.
func (b BBox) Contains(ll LatLng) bool {
	return ll.Lng >= b.MinX && ll.Lng <= b.MaxX && ll.Lat >= b.MinY && ll.Lat <= b.MaxY
}

// Intersects reports whether the boxes overlap or touch.
func (b BBox) Intersects(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Valid reports whether b has a positive extent on both axes.
func (b BBox) Valid() bool {
	return b.MaxX > b.MinX && b.MaxY > b.MinY
}

// Extend grows b to cover (x, y).
func (b BBox) Extend(x, y float64) BBox {
	b.MinX = min(b.MinX, x)
	b.MinY = min(b.MinY, y)
	b.MaxX = max(b.MaxX, x)
	b.MaxY = max(b.MaxY, y)
	return b
}

// Placemark is one marker read from a data file.
type Placemark struct {
	Pos   LatLng
	Name  string
	Icon  string // icon URL; empty means the host default
	Props map[string]string
}

// Data is a minimal marker container for the viewer
type Data struct {
	Placemarks []Placemark
	BBox       BBox
}

func (d *Data) add(p Placemark) {
	if len(d.Placemarks) == 0 {
		d.BBox = PointBox(p.Pos.Lng, p.Pos.Lat)
	} else {
		d.BBox = d.BBox.Extend(p.Pos.Lng, p.Pos.Lat)
	}
	d.Placemarks = append(d.Placemarks, p)
}
