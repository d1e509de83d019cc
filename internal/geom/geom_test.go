package geom

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBBox_ContainsIsInclusive(t *testing.T) {
	b := BBox{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}

	assert.True(t, b.Contains(LatLng{Lat: 5, Lng: 5}))
	assert.True(t, b.Contains(LatLng{Lat: 10, Lng: -10}), "edges are inside")
	assert.False(t, b.Contains(LatLng{Lat: 20, Lng: 20}))
}

func TestBBox_Intersects(t *testing.T) {
	a := BBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}

	assert.True(t, a.Intersects(BBox{MinX: 10, MinY: 10, MaxX: 12, MaxY: 12}), "touching corners intersect")
	assert.True(t, a.Intersects(PointBox(3, 3)))
	assert.False(t, a.Intersects(BBox{MinX: 11, MinY: 0, MaxX: 12, MaxY: 1}))
}

func TestBBox_Extend(t *testing.T) {
	b := PointBox(1, 1).Extend(-2, 4).Extend(0, -3)

	assert.Equal(t, BBox{MinX: -2, MinY: -3, MaxX: 1, MaxY: 4}, b)
	assert.True(t, b.Valid())
	assert.False(t, PointBox(1, 1).Valid())
}

func TestParseCSV(t *testing.T) {
	in := "Name,Latitude,Longitude,icon,kind\n" +
		"a,10,20,builtin:red,cafe\n" +
		"b,-5,30,,bar\n" +
		"bad,x,1,,\n"

	d, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, d.Placemarks, 2)

	assert.Equal(t, LatLng{Lat: 10, Lng: 20}, d.Placemarks[0].Pos)
	assert.Equal(t, "a", d.Placemarks[0].Name)
	assert.Equal(t, "builtin:red", d.Placemarks[0].Icon)
	assert.Equal(t, "cafe", d.Placemarks[0].Props["kind"])
	assert.Equal(t, "", d.Placemarks[1].Icon)
	assert.Equal(t, BBox{MinX: 20, MinY: -5, MaxX: 30, MaxY: 10}, d.BBox)
}

func TestParseCSV_MissingColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("a,b\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude/longitude")
}

func TestParseCSV_NoRows(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("lat,lon\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPoints))
}

func TestParseWKT(t *testing.T) {
	d, err := ParseWKT("MULTIPOINT((1 2),(3 4))")
	require.NoError(t, err)
	require.Len(t, d.Placemarks, 2)
	assert.Equal(t, LatLng{Lat: 2, Lng: 1}, d.Placemarks[0].Pos)
	assert.Equal(t, LatLng{Lat: 4, Lng: 3}, d.Placemarks[1].Pos)
}

func TestParseWKT_OnePerLine(t *testing.T) {
	d, err := ParseWKT("POINT(1 2)\n\nPOINT(5 6)\n")
	require.NoError(t, err)
	require.Len(t, d.Placemarks, 2)
	assert.Equal(t, BBox{MinX: 1, MinY: 2, MaxX: 5, MaxY: 6}, d.BBox)
}

func TestParseWKT_GeometryCollection(t *testing.T) {
	d, err := ParseWKT("GEOMETRYCOLLECTION(POINT(1 2),MULTIPOINT((3 4),(5 6)),LINESTRING(0 0,1 1),POINT EMPTY," +
		"GEOMETRYCOLLECTION(POINT(7 8)))")
	require.NoError(t, err)

	var got []LatLng
	for _, p := range d.Placemarks {
		got = append(got, p.Pos)
	}
	assert.Equal(t, []LatLng{
		{Lat: 2, Lng: 1},
		{Lat: 4, Lng: 3},
		{Lat: 6, Lng: 5},
		{Lat: 8, Lng: 7},
	}, got, "lines and empty points are skipped, nested collections flattened")
}

func TestParseWKT_Errors(t *testing.T) {
	_, err := ParseWKT("   ")
	assert.Error(t, err)

	_, err = ParseWKT("NOT WKT")
	assert.Error(t, err)

	_, err = ParseWKT("LINESTRING(0 0,1 1)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPoints), "lines carry no markers")
}

func TestParseGeoJSON_FeatureCollection(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[13.4,52.5]},"properties":{"name":"Berlin","icon":"builtin:blue","pop":3.6}},
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{}},
		{"type":"Feature","geometry":{"type":"MultiPoint","coordinates":[[2.35,48.85],[-0.1,51.5]]},"properties":{"title":"pair"}}
	]}`

	d, err := ParseGeoJSON([]byte(doc))
	require.NoError(t, err)
	require.Len(t, d.Placemarks, 3)

	assert.Equal(t, "Berlin", d.Placemarks[0].Name)
	assert.Equal(t, "builtin:blue", d.Placemarks[0].Icon)
	assert.Equal(t, "3.6", d.Placemarks[0].Props["pop"])
	assert.Equal(t, "pair", d.Placemarks[1].Name)
	assert.Equal(t, LatLng{Lat: 51.5, Lng: -0.1}, d.Placemarks[2].Pos)
}

func TestParseGeoJSON_BareGeometry(t *testing.T) {
	d, err := ParseGeoJSON([]byte(`{"type":"Point","coordinates":[1,2]}`))
	require.NoError(t, err)
	require.Len(t, d.Placemarks, 1)
	assert.Equal(t, LatLng{Lat: 2, Lng: 1}, d.Placemarks[0].Pos)
}

func TestParseGeoJSON_MissingType(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`{"coordinates":[1,2]}`))
	assert.Error(t, err)
}

func TestParseKML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document><Folder>
  <Placemark><name>Harbour</name>
    <Style><IconStyle><Icon><href>icons/anchor.png</href></Icon></IconStyle></Style>
    <Point><coordinates>-122.4,37.8,0</coordinates></Point>
  </Placemark>
  <Placemark><name>Route</name><LineString><coordinates>0,0 1,1</coordinates></LineString></Placemark>
</Folder></Document></kml>`

	d, err := ParseKML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, d.Placemarks, 1)
	assert.Equal(t, "Harbour", d.Placemarks[0].Name)
	assert.Equal(t, "icons/anchor.png", d.Placemarks[0].Icon)
	assert.Equal(t, LatLng{Lat: 37.8, Lng: -122.4}, d.Placemarks[0].Pos)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "m.csv")
	wktPath := filepath.Join(dir, "m.wkt")
	require.NoError(t, os.WriteFile(csvPath, []byte("lat,lon\n1,2\n"), 0644))
	require.NoError(t, os.WriteFile(wktPath, []byte("POINT(2 1)"), 0644))

	d, err := LoadCSV(csvPath)
	require.NoError(t, err)
	assert.Len(t, d.Placemarks, 1)

	d, err = LoadWKT(wktPath)
	require.NoError(t, err)
	assert.Equal(t, LatLng{Lat: 1, Lng: 2}, d.Placemarks[0].Pos)

	_, err = LoadCSV(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
