// Package canvas provides the drawing surfaces the marker layer paints on.
package canvas

import (
	"image"

	"markermap/internal/geom"
)

// Surface is a raster the size of the map viewport. Coordinates are in
// surface pixels with the origin at the top-left corner.
type Surface interface {
	// Size returns the surface size in pixels.
	Size() (w, h int)
	// Resize changes the size and clears the surface.
	Resize(w, h int)
	// Position is the surface's top-left corner in layer coordinates.
	Position() geom.Point
	SetPosition(p geom.Point)
	Clear()
	// DrawImage paints img scaled to w x h with its top-left corner at x, y.
	DrawImage(img image.Image, x, y, w, h float64)
}
