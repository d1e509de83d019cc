package tui

import (
	"fmt"
	"sort"

	table "github.com/charmbracelet/bubbles/table"

	"markermap/internal/layer"
)

// refreshHits rebuilds the table columns/rows from the last clicked markers.
func (m *Model) refreshHits() {
	cols, rows := buildHitRows(m.sel.clicked)
	if len(rows) == 0 {
		m.showHits = false
		m.status = "no markers selected"
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 4})
	maxColW := 24
	for i, c := range cols {
		w := len(c) + 2
		for _, r := range rows {
			w = max(w, len(r[i])+2)
		}
		tcols = append(tcols, table.Column{Title: c, Width: min(w, maxColW)})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make([]string, 0, len(r)+1)
		row = append(row, fmt.Sprintf("%d", i+1))
		row = append(row, r...)
		trows = append(trows, table.Row(row))
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}

// buildHitRows returns fixed columns followed by the union of the markers'
// property keys, sorted.
func buildHitRows(hits []*layer.Entry) ([]string, [][]string) {
	seen := map[string]bool{}
	var keys []string
	for _, e := range hits {
		b, ok := e.Data.(*layer.Basic)
		if !ok {
			continue
		}
		for k := range b.Props {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	cols := append([]string{"id", "name", "lon", "lat"}, keys...)

	rows := make([][]string, 0, len(hits))
	for _, e := range hits {
		ll := e.Data.LatLng()
		row := []string{
			fmt.Sprintf("%d", e.Data.StampID()),
			markerName(e.Data),
			fmt.Sprintf("%.5f", ll.Lng),
			fmt.Sprintf("%.5f", ll.Lat),
		}
		b, _ := e.Data.(*layer.Basic)
		for _, k := range keys {
			v := ""
			if b != nil {
				v = b.Props[k]
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func markerName(mk layer.Marker) string {
	if b, ok := mk.(*layer.Basic); ok && b.Title != "" {
		return b.Title
	}
	return fmt.Sprintf("#%d", mk.StampID())
}
