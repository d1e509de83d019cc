package tui

import (
	"os"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"markermap/internal/layer"
)

// Options configures the viewer.
type Options struct {
	Layer []layer.Option
	// Icon is given to markers whose source names none.
	Icon layer.Icon
	Log  zerolog.Logger
}

// selection is written by the layer's listeners. They outlive any single
// copy of Model, so they share it by pointer.
type selection struct {
	hovered []*layer.Entry
	clicked []*layer.Entry
}

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	status string

	// File explorer
	cwd     string
	l       list.Model
	items   []list.Item
	selPath string

	// Map and markers
	vp    *viewport
	layer *layer.IconLayer
	sel   *selection
	icon  layer.Icon
	log   zerolog.Logger

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// hit table of the last click
	showHits bool
	tbl      table.Model

	// pointer state
	hoverText   string
	mouseHasGeo bool
	mouseLon    float64
	mouseLat    float64
}

func New(opts Options) Model {
	m := Model{
		helpVisible: true,
		status:      "markermap ready",
		icon:        opts.Icon,
		log:         opts.Log,
		sel:         &selection{},
	}
	m.cwd, _ = os.Getwd()
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT points (POINT, MULTIPOINT, one per line). Press Enter to add markers; Esc to cancel."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	// hit table setup (columns are built per click)
	m.tbl = table.New(table.WithFocused(true), table.WithStyles(hitTableStyles()))
	m.tbl.SetHeight(12)

	m.vp = newViewport(80, 20)
	m.layer = layer.New(append([]layer.Option{layer.WithLogger(opts.Log)}, opts.Layer...)...)
	sel := m.sel
	m.layer.AddOnHoverListener(func(_ layer.Event, hits []*layer.Entry) { sel.hovered = hits })
	m.layer.AddOnClickListener(func(_ layer.Event, hits []*layer.Entry) { sel.clicked = hits })
	m.layer.AddTo(m.vp)

	m.refreshDir()
	return m
}

// NewWithPath preloads a file's markers at launch.
func NewWithPath(opts Options, path string) Model {
	m := New(opts)
	m.loadPath(path)
	return m
}

func (m Model) Init() tea.Cmd { return waitForImage(m.layer.ImageResults()) }

// Close stops outstanding icon loads.
func (m Model) Close() { m.layer.Close() }
