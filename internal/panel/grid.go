package panel

import (
	"math"

	"github.com/oscmix/spatializer/internal/geo"
	"github.com/oscmix/spatializer/internal/registry"
	"github.com/oscmix/spatializer/internal/selection"
)

// HitRadius is how far from a marker, in panel units, a press still hits it.
const HitRadius = 0.45

// Grid maps terminal cells to panel coordinates. Terminal cells are about
// twice as tall as they are wide, so one panel unit spans twice as many
// columns as rows.
type Grid struct {
	// Rows is the height of the circle area in cells. Odd values keep the
	// centre on a cell.
	Rows int
	// Top and Left are the screen offset of the circle area.
	Top, Left int
	// Extent is the distance in panel units from the centre to the edge of
	// the area.
	Extent float64
	// Labels is the number of label rows drawn right of the circle.
	Labels int
	// LabelWidth is the clickable width of a label row.
	LabelWidth int
}

// DefaultGrid fits a circle of the given radius with a small margin.
func DefaultGrid(radius float64, labels int) Grid {
	const rows = 19
	return Grid{
		Rows:       rows,
		Top:        2,
		Left:       1,
		Extent:     radius * 1.2,
		Labels:     min(labels, rows),
		LabelWidth: 18,
	}
}

// Cols is the width of the circle area in cells.
func (g Grid) Cols() int {
	return 2*g.Rows - 1
}

// rowsPerUnit is the number of rows one panel unit spans.
func (g Grid) rowsPerUnit() float64 {
	return float64(g.Rows-1) / 2 / g.Extent
}

func (g Grid) centre() (col, row int) {
	return g.Left + (g.Cols()-1)/2, g.Top + (g.Rows-1)/2
}

// ToPanel converts a screen cell to panel coordinates.
func (g Grid) ToPanel(col, row int) geo.Position {
	cx, cy := g.centre()
	u := g.rowsPerUnit()
	return geo.Position{
		X: float64(col-cx) / (2 * u),
		Y: float64(cy-row) / u,
	}
}

// ToCell converts panel coordinates to the nearest screen cell.
func (g Grid) ToCell(p geo.Position) (col, row int) {
	cx, cy := g.centre()
	u := g.rowsPerUnit()
	return cx + int(math.Round(p.X*2*u)), cy - int(math.Round(p.Y*u))
}

// InCircleArea reports whether a screen cell lies in the circle area.
func (g Grid) InCircleArea(col, row int) bool {
	return col >= g.Left && col < g.Left+g.Cols() && row >= g.Top && row < g.Top+g.Rows
}

// LabelCol is the first column of the label rows.
func (g Grid) LabelCol() int {
	return g.Left + g.Cols() + 3
}

// LabelRow is the screen row of the label of object id.
func (g Grid) LabelRow(id int) int {
	return g.Top + id - 1
}

// HitTest returns every marker and label under a screen cell.
func (g Grid) HitTest(col, row int, objects []registry.Object) []selection.Hit {
	var hits []selection.Hit

	if g.InCircleArea(col, row) {
		p := g.ToPanel(col, row)
		for _, o := range objects {
			if p.Sub(o.Position).Length() <= HitRadius {
				hits = append(hits, selection.ObjectHit(o.ID))
			}
		}
	}

	if col >= g.LabelCol() && col < g.LabelCol()+g.LabelWidth {
		id := row - g.Top + 1
		if id >= 1 && id <= g.Labels && id <= len(objects) {
			hits = append(hits, selection.LabelHit(id))
		}
	}
	return hits
}
