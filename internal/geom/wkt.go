package geom

import (
	"errors"
	"fmt"
	"os"
	"strings"

	sf "github.com/peterstace/simplefeatures/geom"
)

// ParseWKT reads point markers from WKT text.
// Supported: POINT, MULTIPOINT and GEOMETRYCOLLECTIONs of those. The input may
// be one geometry or several, one per line.
func ParseWKT(wkt string) (Data, error) {
	s := strings.TrimSpace(wkt)
	if s == "" {
		return Data{}, errors.New("empty wkt")
	}
	var d Data
	if g, err := sf.UnmarshalWKT(s); err == nil {
		for _, ll := range pointsOf(g) {
			d.add(Placemark{Pos: ll})
		}
	} else {
		lines := strings.Split(s, "\n")
		if len(lines) == 1 {
			return Data{}, fmt.Errorf("wkt: %w", err)
		}
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			g, err := sf.UnmarshalWKT(line)
			if err != nil {
				return Data{}, fmt.Errorf("wkt line %d: %w", i+1, err)
			}
			for _, ll := range pointsOf(g) {
				d.add(Placemark{Pos: ll})
			}
		}
	}
	if len(d.Placemarks) == 0 {
		return Data{}, fmt.Errorf("wkt: %w", ErrNoPoints)
	}
	return d, nil
}

// LoadWKT reads a .wkt file.
func LoadWKT(path string) (Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	return ParseWKT(string(b))
}

// pointsOf flattens the point content of g. Non-point geometries yield nothing.
func pointsOf(g sf.Geometry) []LatLng {
	var out []LatLng
	switch g.Type() {
	case sf.TypePoint:
		pt, ok := g.AsPoint()
		if !ok {
			break
		}
		if xy, ok := pt.XY(); ok {
			out = append(out, LatLng{Lat: xy.Y, Lng: xy.X})
		}
	case sf.TypeMultiPoint:
		mp, ok := g.AsMultiPoint()
		if !ok {
			break
		}
		for i := 0; i < mp.NumPoints(); i++ {
			if xy, ok := mp.PointN(i).XY(); ok {
				out = append(out, LatLng{Lat: xy.Y, Lng: xy.X})
			}
		}
	case sf.TypeGeometryCollection:
		gc, ok := g.AsGeometryCollection()
		if !ok {
			break
		}
		for i := 0; i < gc.NumGeometries(); i++ {
			out = append(out, pointsOf(gc.GeometryN(i))...)
		}
	}
	return out
}
