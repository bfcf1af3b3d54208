package panel

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oscmix/spatializer/internal/geo"
	"github.com/oscmix/spatializer/internal/registry"
)

const markerGlyphs = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	zoneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	idleStyle     = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	draggingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("201"))
	labelStyle    = lipgloss.NewStyle().Width(18)
	focusStyle    = labelStyle.Reverse(true)
	statusStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
)

type cell struct {
	r     rune
	style *lipgloss.Style
}

// View implements tea.Model interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	objects := m.state.Objects()
	focus := m.state.Focus()

	var b strings.Builder
	b.WriteString(titleStyle.Render("spatializer"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  ip %s  →  %s", m.cfg.LocalIP, m.cfg.Target)))
	b.WriteString("\n\n")

	canvas := m.canvas(objects)
	for i, row := range canvas {
		b.WriteString(strings.Repeat(" ", m.grid.Left))
		for _, c := range row {
			if c.style != nil {
				b.WriteString(c.style.Render(string(c.r)))
			} else {
				b.WriteRune(c.r)
			}
		}
		b.WriteString("   ")
		id := i + 1
		if id <= m.grid.Labels && id <= len(objects) {
			text := fmt.Sprintf("%c %s", glyph(id), objects[id-1].Label)
			if focus.Label == id {
				b.WriteString(focusStyle.Render(text))
			} else {
				b.WriteString(labelStyle.Render(text))
			}
			b.WriteString(dimStyle.Render(fmt.Sprintf(" %3d°", objects[id-1].Bearing())))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.mixerLine())
	if m.prompt.active() {
		b.WriteString("\n")
		b.WriteString(m.prompt.String())
	} else if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("drag markers · click labels · s snap · e label · w/o/x/l layouts · 1-9 solo · c clear · +/- master · [/] reverb · q quit"))
	return b.String()
}

func (m Model) canvas(objects []registry.Object) [][]cell {
	rows, cols := m.grid.Rows, m.grid.Cols()
	canvas := make([][]cell, rows)
	for i := range canvas {
		canvas[i] = make([]cell, cols)
		for j := range canvas[i] {
			canvas[i][j] = cell{r: ' '}
		}
	}
	put := func(p geo.Position, r rune, style *lipgloss.Style) {
		col, row := m.grid.ToCell(p)
		col -= m.grid.Left
		row -= m.grid.Top
		if row >= 0 && row < rows && col >= 0 && col < cols {
			canvas[row][col] = cell{r: r, style: style}
		}
	}

	for a := 0; a < 360; a++ {
		put(geo.FromBearing(float64(a), m.cfg.Radius), '·', &dimStyle)
	}
	for _, z := range m.cfg.Zones {
		put(geo.FromBearing(z, m.cfg.Radius), '+', &zoneStyle)
	}
	put(geo.Position{}, '·', &dimStyle)

	// draw lowest first so the object on top wins the cell
	ordered := slices.Clone(objects)
	slices.SortFunc(ordered, func(a, b registry.Object) int {
		switch {
		case a.Above(b):
			return 1
		case b.Above(a):
			return -1
		}
		return 0
	})
	for _, o := range ordered {
		style := &idleStyle
		switch o.State {
		case registry.Selected:
			style = &selectedStyle
		case registry.Dragging:
			style = &draggingStyle
		}
		put(o.Position, glyph(o.ID), style)
	}
	return canvas
}

func (m Model) mixerLine() string {
	var b strings.Builder
	if m.cfg.Meters != nil {
		soloed := 0
		if m.cfg.Solo != nil {
			soloed = m.cfg.Solo.Soloed()
		}
		for i, level := range m.cfg.Meters.Levels() {
			ch := i + 1
			mark := ' '
			if ch == soloed {
				mark = 'S'
			}
			fmt.Fprintf(&b, "%d%c%s ", ch, mark, meterBar(level, 5))
		}
	}
	if m.cfg.Master != nil {
		fmt.Fprintf(&b, " master %.1f dB", m.cfg.Master.Decibels())
	}
	if m.cfg.Reverb != nil {
		fmt.Fprintf(&b, "  reverb %.1f dB", m.cfg.Reverb.Decibels())
	}
	return b.String()
}

func meterBar(level float64, width int) string {
	if math.IsNaN(level) {
		level = 0
	}
	n := int(math.Round(math.Max(0, math.Min(1, level)) * float64(width)))
	return "[" + strings.Repeat("|", n) + strings.Repeat(" ", width-n) + "]"
}

func glyph(id int) rune {
	if id < 1 || id > len(markerGlyphs) {
		return '?'
	}
	return rune(markerGlyphs[id-1])
}
