package plan

import (
	"fmt"
	"iter"
	"math"

	"tileview/internal/nav"
)

// QueryPlan is a map-space rectangle the layers must fetch data for.
// The corners are not required to be normalized.
type QueryPlan struct {
	UpperLeft  nav.ContinuousMapCoordinate
	LowerRight nav.ContinuousMapCoordinate
}

// NewQueryPlan returns a plan covering exactly one position.
func NewQueryPlan(c nav.ContinuousMapCoordinate) QueryPlan {
	return QueryPlan{UpperLeft: c, LowerRight: c}
}

// Expand returns the plan grown to include c.
func (q QueryPlan) Expand(c nav.ContinuousMapCoordinate) QueryPlan {
	ul, lr := q.normalized()
	return QueryPlan{
		UpperLeft:  nav.AtF(math.Min(ul.X, c.X), math.Min(ul.Y, c.Y)),
		LowerRight: nav.AtF(math.Max(lr.X, c.X), math.Max(lr.Y, c.Y)),
	}
}

func (q QueryPlan) normalized() (nav.ContinuousMapCoordinate, nav.ContinuousMapCoordinate) {
	return nav.AtF(math.Min(q.UpperLeft.X, q.LowerRight.X), math.Min(q.UpperLeft.Y, q.LowerRight.Y)),
		nav.AtF(math.Max(q.UpperLeft.X, q.LowerRight.X), math.Max(q.UpperLeft.Y, q.LowerRight.Y))
}

// ToArea converts the plan into the inclusive integer area it touches.
func (q QueryPlan) ToArea() Area {
	ul, lr := q.normalized()
	x, y := int(math.Floor(ul.X)), int(math.Floor(ul.Y))
	return Area{
		X:      x,
		Y:      y,
		Width:  int(math.Ceil(lr.X)) - x + 1,
		Height: int(math.Ceil(lr.Y)) - y + 1,
	}
}

func (q QueryPlan) String() string {
	return fmt.Sprintf("%s-%s", q.UpperLeft, q.LowerRight)
}

// Area is an inclusive cell rectangle.
type Area struct {
	X, Y          int
	Width, Height int
}

func (a Area) MaxX() int { return a.X + a.Width - 1 }
func (a Area) MaxY() int { return a.Y + a.Height - 1 }

// Empty reports whether the area holds no cells.
func (a Area) Empty() bool {
	return a.Width <= 0 || a.Height <= 0
}

func (a Area) Contains(c nav.MapCoordinate) bool {
	return c.X >= a.X && c.X <= a.MaxX() && c.Y >= a.Y && c.Y <= a.MaxY()
}

// Intersect returns the overlap of two areas; the result may be Empty.
func (a Area) Intersect(b Area) Area {
	x0, y0 := max(a.X, b.X), max(a.Y, b.Y)
	x1, y1 := min(a.MaxX(), b.MaxX()), min(a.MaxY(), b.MaxY())
	return Area{X: x0, Y: y0, Width: x1 - x0 + 1, Height: y1 - y0 + 1}
}

// Cells yields every cell in row-major order.
func (a Area) Cells() iter.Seq[nav.MapCoordinate] {
	return func(yield func(nav.MapCoordinate) bool) {
		for y := a.Y; y <= a.MaxY(); y++ {
			for x := a.X; x <= a.MaxX(); x++ {
				if !yield(nav.At(x, y)) {
					return
				}
			}
		}
	}
}

func (a Area) String() string {
	return fmt.Sprintf("[%d,%d %dx%d]", a.X, a.Y, a.Width, a.Height)
}

// Areas converts a slice of plans.
func Areas(plans []QueryPlan) []Area {
	out := make([]Area, len(plans))
	for i, p := range plans {
		out[i] = p.ToArea()
	}
	return out
}
