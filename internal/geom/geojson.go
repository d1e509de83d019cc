package geom

import (
	"encoding/json"
	"fmt"
	"os"

	sf "github.com/peterstace/simplefeatures/geom"
)

// LoadGeo reads a GeoJSON file and returns one placemark per point.
// FeatureCollection, Feature and bare geometries are accepted; Point and
// MultiPoint geometries become markers, everything else is skipped.
// Feature properties "name"/"title" and "icon"/"iconUrl" fill the placemark.
func LoadGeo(path string) (Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	return ParseGeoJSON(b)
}

// ParseGeoJSON is LoadGeo on an in-memory document.
func ParseGeoJSON(b []byte) (Data, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return Data{}, fmt.Errorf("geojson: %w", err)
	}
	var d Data
	switch head.Type {
	case "FeatureCollection":
		var fc sf.GeoJSONFeatureCollection
		if err := json.Unmarshal(b, &fc); err != nil {
			return Data{}, fmt.Errorf("geojson: %w", err)
		}
		for _, f := range fc {
			addFeature(&d, f)
		}
	case "Feature":
		var f sf.GeoJSONFeature
		if err := json.Unmarshal(b, &f); err != nil {
			return Data{}, fmt.Errorf("geojson: %w", err)
		}
		addFeature(&d, f)
	case "":
		return Data{}, fmt.Errorf("geojson: missing type")
	default:
		g, err := sf.UnmarshalGeoJSON(b)
		if err != nil {
			return Data{}, fmt.Errorf("geojson: %w", err)
		}
		for _, ll := range pointsOf(g) {
			d.add(Placemark{Pos: ll})
		}
	}
	if len(d.Placemarks) == 0 {
		return Data{}, fmt.Errorf("geojson: %w", ErrNoPoints)
	}
	return d, nil
}

func addFeature(d *Data, f sf.GeoJSONFeature) {
	props := make(map[string]string, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = propString(v)
	}
	name := first(props, "name", "title")
	icon := first(props, "icon", "iconUrl")
	for _, ll := range pointsOf(f.Geometry) {
		d.add(Placemark{Pos: ll, Name: name, Icon: icon, Props: props})
	}
}

func first(props map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := props[k]; v != "" {
			return v
		}
	}
	return ""
}

func propString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		bs, _ := json.Marshal(t)
		return string(bs)
	}
}
