package canvas

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"markermap/internal/geom"
)

// AlphaThreshold is the minimum alpha for an image pixel to set a dot.
const AlphaThreshold = 0x80

// Braille is a Surface backed by terminal cells. Every cell holds a 2x4 grid
// of braille dots, so a surface of w x h cells has 2w x 4h pixels. Each cell
// keeps the colour of the last image drawn into it.
type Braille struct {
	w, h int // in cells
	m    [][]uint8
	col  [][]color.RGBA
	pos  geom.Point
}

var _ Surface = (*Braille)(nil)

// NewBraille creates a surface of w x h terminal cells.
func NewBraille(w, h int) *Braille {
	b := &Braille{}
	b.resizeCells(w, h)
	return b
}

func (b *Braille) resizeCells(w, h int) {
	w, h = max(w, 0), max(h, 0)
	b.w, b.h = w, h
	b.m = make([][]uint8, h)
	b.col = make([][]color.RGBA, h)
	for i := range b.m {
		b.m[i] = make([]uint8, w)
		b.col[i] = make([]color.RGBA, w)
	}
}

// Cells returns the size in terminal cells.
func (b *Braille) Cells() (w, h int) { return b.w, b.h }

func (b *Braille) Size() (int, int) { return b.w * 2, b.h * 4 }

// Resize takes a size in pixels and rounds it up to whole cells.
func (b *Braille) Resize(w, h int) {
	b.resizeCells((w+1)/2, (h+3)/4)
}

func (b *Braille) Position() geom.Point     { return b.pos }
func (b *Braille) SetPosition(p geom.Point) { b.pos = p }

func (b *Braille) Clear() {
	for y := range b.m {
		clear(b.m[y])
		clear(b.col[y])
	}
}

// DrawImage samples img with nearest-neighbour scaling. Pixels below
// AlphaThreshold leave the dot untouched.
func (b *Braille) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	src := img.Bounds()
	x0, y0 := int(math.Round(x)), int(math.Round(y))
	dw, dh := int(math.Round(w)), int(math.Round(h))
	for dy := 0; dy < dh; dy++ {
		sy := src.Min.Y + dy*src.Dy()/dh
		for dx := 0; dx < dw; dx++ {
			sx := src.Min.X + dx*src.Dx()/dw
			c := color.RGBAModel.Convert(img.At(sx, sy)).(color.RGBA)
			if c.A < AlphaThreshold {
				continue
			}
			b.set(x0+dx, y0+dy, c)
		}
	}
}

// Overlay copies the dots of o on top of b with o's top-left cell at cx, cy.
// Cells o leaves blank keep b's content; cells falling outside b are dropped.
func (b *Braille) Overlay(o *Braille, cx, cy int) {
	for y := 0; y < o.h; y++ {
		ty := y + cy
		if ty < 0 || ty >= b.h {
			continue
		}
		for x := 0; x < o.w; x++ {
			tx := x + cx
			if tx < 0 || tx >= b.w || o.m[y][x] == 0 {
				continue
			}
			b.m[ty][tx] |= o.m[y][x]
			if o.col[y][x].A != 0 {
				b.col[ty][tx] = o.col[y][x]
			}
		}
	}
}

// Dot reports whether the dot at mx, my is set.
func (b *Braille) Dot(mx, my int) bool {
	cx, cy, bit, ok := b.locate(mx, my)
	return ok && b.m[cy][cx]&bit != 0
}

func (b *Braille) set(mx, my int, c color.RGBA) {
	if cx, cy, bit, ok := b.locate(mx, my); ok {
		b.m[cy][cx] |= bit
		b.col[cy][cx] = c
	}
}

func (b *Braille) locate(mx, my int) (cx, cy int, bit uint8, ok bool) {
	if mx < 0 || my < 0 {
		return 0, 0, 0, false
	}
	cx, rx := mx/2, mx%2
	cy, ry := my/4, my%4
	if cy >= b.h || cx >= b.w {
		return 0, 0, 0, false
	}
	return cx, cy, dotBits[rx][ry], true
}

// dotBits maps a dot's column and row inside a cell to its bit in the
// braille code point.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// Lines renders the surface as plain braille runes, one string per row.
func (b *Braille) Lines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			row[x] = cellRune(b.m[y][x])
		}
		out[y] = string(row)
	}
	return out
}

// Render returns the surface with cell colours applied. Runs of cells sharing
// a colour are styled together.
func (b *Braille) Render() string {
	rows := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		var sb strings.Builder
		var run []rune
		var runCol color.RGBA
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runCol.A == 0 {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(lipgloss.NewStyle().Foreground(hexColor(runCol)).Render(string(run)))
			}
			run = run[:0]
		}
		for x := 0; x < b.w; x++ {
			c := b.col[y][x]
			if b.m[y][x] == 0 {
				c = color.RGBA{}
			}
			if c != runCol {
				flush()
				runCol = c
			}
			run = append(run, cellRune(b.m[y][x]))
		}
		flush()
		rows[y] = sb.String()
	}
	return strings.Join(rows, "\n")
}

func cellRune(mask uint8) rune {
	if mask == 0 {
		return ' '
	}
	return rune(0x2800 + int(mask))
}

func hexColor(c color.RGBA) lipgloss.Color {
	const digits = "0123456789abcdef"
	buf := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		buf[1+2*i] = digits[v>>4]
		buf[2+2*i] = digits[v&0x0f]
	}
	return lipgloss.Color(string(buf))
}
