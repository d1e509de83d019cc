package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"

	"markermap/internal/geom"
	"markermap/internal/layer"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func supported(ext string) bool {
	switch ext {
	case ".geojson", ".json", ".csv", ".kml", ".wkt":
		return true
	}
	return false
}

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if supported(ext) {
			items = append(items, fileItem{title: name, desc: ext, path: filepath.Join(m.cwd, name)})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no supported files in current directory"
	}
}

// loadPath adds the markers of a supported file to the layer.
func (m *Model) loadPath(p string) {
	m.selPath = p
	var (
		d   geom.Data
		err error
	)
	ext := strings.ToLower(filepath.Ext(p))
	switch ext {
	case ".geojson", ".json":
		d, err = geom.LoadGeo(p)
	case ".csv":
		d, err = geom.LoadCSV(p)
	case ".kml":
		d, err = geom.LoadKML(p)
	case ".wkt":
		d, err = geom.LoadWKT(p)
	default:
		m.status = "unsupported file: " + ext
		return
	}
	if err != nil {
		m.log.Error().Err(err).Str("path", p).Msg("load markers")
		m.status = "load error: " + err.Error()
		return
	}
	n := m.addData(d, filepath.Dir(p))
	m.log.Info().Str("path", p).Int("markers", n).Msg("loaded markers")
	m.status = "loaded: " + filepath.Base(p) + fmt.Sprintf("  markers=%d total=%d", n, m.layer.Len())
}

// addData turns placemarks into markers and adds them in one batch. The
// first batch also frames the view around its markers.
func (m *Model) addData(d geom.Data, dir string) int {
	ms := make([]layer.Marker, 0, len(d.Placemarks))
	for _, pm := range d.Placemarks {
		ms = append(ms, m.markerFor(pm, dir))
	}
	first := m.layer.Len() == 0
	m.layer.AddMarkers(ms)
	if first && len(ms) > 0 {
		m.vp.fitBounds(d.BBox)
	}
	return len(ms)
}

func (m *Model) markerFor(pm geom.Placemark, dir string) *layer.Basic {
	ic := m.icon
	if pm.Icon != "" {
		ic.URL = resolveIcon(pm.Icon, dir)
	}
	mk := layer.NewMarker(pm.Pos, &ic)
	mk.Title = pm.Name
	mk.Props = pm.Props
	return mk
}

// resolveIcon makes relative icon paths relative to the data file.
func resolveIcon(u, dir string) string {
	if dir == "" || strings.Contains(u, ":") || filepath.IsAbs(u) {
		return u
	}
	return filepath.Join(dir, u)
}
