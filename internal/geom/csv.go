package geom

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads a CSV with latitude/longitude columns and returns placemarks.
// Column detection: lat|latitude|y and lon|lng|long|longitude|x (case-insensitive).
// Optional columns name|title and icon|iconurl fill the placemark; every
// column is kept in Props.
func LoadCSV(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, err
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV is LoadCSV on a reader.
func ParseCSV(rd io.Reader) (Data, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return Data{}, fmt.Errorf("csv: %w", err)
	}
	if len(recs) == 0 {
		return Data{}, errors.New("empty csv")
	}
	header := recs[0]
	idxLat, idxLon, idxName, idxIcon := -1, -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		case "name", "title":
			if idxName == -1 {
				idxName = i
			}
		case "icon", "iconurl":
			if idxIcon == -1 {
				idxIcon = i
			}
		}
	}
	if idxLat == -1 || idxLon == -1 {
		return Data{}, errors.New("csv: latitude/longitude columns not found")
	}
	var d Data
	for _, row := range recs[1:] {
		if idxLon >= len(row) || idxLat >= len(row) {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		p := Placemark{Pos: LatLng{Lat: lat, Lng: lon}, Props: make(map[string]string, len(header))}
		for i, h := range header {
			if i < len(row) {
				p.Props[h] = row[i]
			}
		}
		if idxName >= 0 && idxName < len(row) {
			p.Name = row[idxName]
		}
		if idxIcon >= 0 && idxIcon < len(row) {
			p.Icon = strings.TrimSpace(row[idxIcon])
		}
		d.add(p)
	}
	if len(d.Placemarks) == 0 {
		return Data{}, fmt.Errorf("csv: %w", ErrNoPoints)
	}
	return d, nil
}
