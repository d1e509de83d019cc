package tui

import (
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"markermap/internal/geom"
	"markermap/internal/imagecache"
	"markermap/internal/layer"
)

const sidebarWidth = 28

// imageLoadedMsg carries a finished icon load into the program loop.
type imageLoadedMsg imagecache.Result

func waitForImage(ch <-chan imagecache.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return imageLoadedMsg(res)
	}
}

// layout is the screen split shared by Update and View.
type layout struct {
	contentW, contentH int
	mapX, mapY         int
	mapW, mapH         int
}

func (m Model) layout() layout {
	sw := 0
	if m.showSidebar {
		sw = sidebarWidth
	}
	headerHeight := 1
	footerHeight := 2
	lay := layout{
		contentW: max(10, m.width),
		contentH: max(4, m.height-headerHeight-footerHeight),
		mapY:     headerHeight,
	}
	lay.mapW = max(10, lay.contentW-sw-1)
	lay.mapH = lay.contentH
	if m.showSidebar {
		lay.mapX = sw + 1
	}
	return lay
}

// syncViewport keeps the map the size of its screen area.
func (m *Model) syncViewport() {
	lay := m.layout()
	m.vp.resize(lay.mapW, lay.mapH)
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lay.contentH-2)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case imageLoadedMsg:
		m.layer.ImageLoaded(imagecache.Result(msg))
		return m, waitForImage(m.layer.ImageResults())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncViewport()
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			switch msg.String() {
			case "esc":
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			case "enter":
				w := strings.TrimSpace(m.ta.Value())
				if w == "" {
					m.status = "paste: empty"
					return m, nil
				}
				d, err := geom.ParseWKT(w)
				if err != nil {
					m.status = "wkt error: " + err.Error()
					return m, nil
				}
				n := m.addData(d, "")
				m.status = fmt.Sprintf("added %d pasted markers", n)
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.ta, cmd = m.ta.Update(msg)
			return m, cmd
		}
		if m.showHits {
			switch msg.String() {
			case "esc", "a":
				m.showHits = false
				return m, nil
			case "up", "down", "k", "j", "pgup", "pgdown":
				var cmd tea.Cmd
				m.tbl, cmd = m.tbl.Update(msg)
				return m, cmd
			}
		}
		m.handleKey(msg.String())
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(key string) {
	size := m.vp.Size()
	switch key {
	case "+", "=":
		m.vp.zoomBy(1)
		m.status = fmt.Sprintf("zoom: %d", m.vp.zoom)
	case "-", "_":
		m.vp.zoomBy(-1)
		m.status = fmt.Sprintf("zoom: %d", m.vp.zoom)
	case "up":
		m.vp.panBy(geom.Point{Y: -size.Y / 4})
	case "down":
		m.vp.panBy(geom.Point{Y: size.Y / 4})
	case "left":
		m.vp.panBy(geom.Point{X: -size.X / 4})
	case "right":
		m.vp.panBy(geom.Point{X: size.X / 4})
	case "f":
		if ext, ok := m.layer.Extent(); ok {
			m.vp.fitBounds(ext)
			m.status = "fit to markers"
		} else {
			m.status = "no markers"
		}
	case "r":
		m.layer.Redraw()
		st := m.layer.Stats()
		m.status = fmt.Sprintf("redrawn  markers=%d visible=%d dirty=%d", st.Total, st.Visible, st.Dirty)
	case "d":
		m.removeSelected()
	case "a":
		if len(m.sel.clicked) == 0 {
			m.status = "click a marker first"
			return
		}
		m.showHits = true
		m.refreshHits()
	case "tab":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.refreshDir()
		}
		m.syncViewport()
	case "p":
		m.pasteMode = true
		m.ta.SetValue("")
		m.status = "paste mode"
		m.ta.Focus()
	case "h":
		m.helpVisible = !m.helpVisible
	case "enter":
		if m.showSidebar {
			if it, ok := m.l.SelectedItem().(fileItem); ok {
				m.loadPath(it.path)
			}
		}
	}
}

// removeSelected drops the last clicked markers and redraws once.
func (m *Model) removeSelected() {
	if len(m.sel.clicked) == 0 {
		m.status = "click a marker first"
		return
	}
	n := 0
	for _, e := range m.sel.clicked {
		if m.layer.RemoveMarker(e, false) {
			n++
		}
	}
	m.sel.clicked = nil
	m.showHits = false
	m.layer.Redraw()
	m.status = fmt.Sprintf("removed %d markers", n)
}

// handleMouse turns terminal mouse events inside the map into layer events.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	lay := m.layout()
	cx, cy := msg.X-lay.mapX, msg.Y-lay.mapY
	if cx < 0 || cy < 0 || cx >= lay.mapW || cy >= lay.mapH || m.showHits || m.pasteMode {
		m.mouseHasGeo = false
		return
	}
	// centre of the cell in dots
	p := geom.Point{X: float64(cx*dotsPerCol) + 1, Y: float64(cy*dotsPerRow) + 2}
	ll := m.vp.containerPointToLatLng(p)
	m.mouseHasGeo, m.mouseLon, m.mouseLat = true, ll.Lng, ll.Lat

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.sel.clicked = nil
		m.vp.pointerEvent(layer.EventClick, p)
		if len(m.sel.clicked) == 0 {
			m.status = "no marker here"
			return
		}
		m.status = fmt.Sprintf("selected %d markers  (a: details, d: delete)", len(m.sel.clicked))
	case msg.Action == tea.MouseActionMotion:
		m.sel.hovered = nil
		m.vp.pointerEvent(layer.EventPointerMove, p)
		m.hoverText = ""
		if m.vp.cursor == layer.CursorPointer && len(m.sel.hovered) > 0 {
			m.hoverText = hoverNames(m.sel.hovered)
		}
	}
}

func hoverNames(hits []*layer.Entry) string {
	const maxNames = 3
	names := make([]string, 0, maxNames)
	for i, e := range hits {
		if i == maxNames {
			break
		}
		names = append(names, markerName(e.Data))
	}
	s := strings.Join(names, ", ")
	if len(hits) > maxNames {
		s += fmt.Sprintf(" (+%d)", len(hits)-maxNames)
	}
	return s
}
