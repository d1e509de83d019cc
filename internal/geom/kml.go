package geom

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadKML extracts Point placemarks from a KML file (Placemark > Point > coordinates).
// KML coordinates are "lon,lat[,alt]"; we ignore altitude. An inline
// Style > IconStyle > Icon > href becomes the placemark icon.
func LoadKML(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, err
	}
	defer f.Close()
	return ParseKML(f)
}

type kmlPlacemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Point       *struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
	Href string `xml:"Style>IconStyle>Icon>href"`
}

// ParseKML is LoadKML on a reader. Placemarks may sit under Document and
// Folder elements at any depth.
func ParseKML(r io.Reader) (Data, error) {
	dec := xml.NewDecoder(r)
	var d Data
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Data{}, fmt.Errorf("kml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return Data{}, fmt.Errorf("kml: %w", err)
		}
		if pm.Point == nil {
			continue
		}
		// coordinates may contain multiple tuples separated by spaces
		for _, tuple := range strings.Fields(pm.Point.Coordinates) {
			vals := strings.Split(tuple, ",")
			if len(vals) < 2 {
				continue
			}
			lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
			lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
			if err1 != nil || err2 != nil {
				continue
			}
			d.add(Placemark{
				Pos:   LatLng{Lat: lat, Lng: lon},
				Name:  strings.TrimSpace(pm.Name),
				Icon:  strings.TrimSpace(pm.Href),
				Props: map[string]string{"name": pm.Name, "description": strings.TrimSpace(pm.Description)},
			})
		}
	}
	if len(d.Placemarks) == 0 {
		return Data{}, fmt.Errorf("kml: %w", ErrNoPoints)
	}
	return d, nil
}
