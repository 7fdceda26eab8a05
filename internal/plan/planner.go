package plan

import (
	"math"

	"tileview/internal/nav"
	"tileview/internal/view"
)

// Planner turns a viewport into the map rectangles that cover it.
type Planner interface {
	Plan(v view.Viewport) []QueryPlan
}

// zoneCount is the 3x3 grid of wrap offsets around the home map.
const zoneCount = 9

func zoneOf(info nav.NavigationInfo) int {
	return (clampUnit(info.WrapY)+1)*3 + clampUnit(info.WrapX) + 1
}

func clampUnit(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

// zones collects visited cells into one plan per wrap offset so that
// duplicate regions never merge into one oversized rectangle.
type zones struct {
	plans [zoneCount]QueryPlan
	used  [zoneCount]bool
}

func (z *zones) add(mapNav nav.Navigator, raw nav.MapCoordinate) {
	c, info, ok := mapNav.Navigate(nav.None, raw, 0)
	if !ok {
		return
	}
	i := zoneOf(info)
	if z.used[i] {
		z.plans[i] = z.plans[i].Expand(c.Continuous())
		return
	}
	z.plans[i] = NewQueryPlan(c.Continuous())
	z.used[i] = true
}

func (z *zones) result() []QueryPlan {
	var out []QueryPlan
	for i := range zoneCount {
		if z.used[i] {
			out = append(out, z.plans[i])
		}
	}
	return out
}

// worldExtent returns the overdraw-expanded viewport corners in map space.
func worldExtent(v view.Viewport) (nav.ContinuousMapCoordinate, nav.ContinuousMapCoordinate, view.Rect) {
	r := v.PixelBounds().Expand(v.PixelOverdraw())
	start := v.ScreenToWorld(view.ScreenPosition{X: float64(r.X), Y: float64(r.Y)})
	end := v.ScreenToWorld(view.ScreenPosition{X: float64(r.X + r.Width), Y: float64(r.Y + r.Height)})
	return start, end, r
}

// GridPlanner plans rectangular grid maps.
type GridPlanner struct{}

func NewGridPlanner() GridPlanner { return GridPlanner{} }

func (GridPlanner) Plan(v view.Viewport) []QueryPlan {
	start, end, _ := worldExtent(v)
	origin := start.Floor()
	cols := int(math.Ceil(end.X)) - origin.X
	rows := int(math.Ceil(end.Y)) - origin.Y

	raw := v.Navigator(view.RawSpace)
	mapNav := v.Navigator(view.MapSpace)
	var z zones
	row := origin
	for range rows {
		cur := row
		for range cols {
			z.add(mapNav, cur)
			cur, _ = raw.NavigateTo(nav.East, cur, 1)
		}
		row, _ = raw.NavigateTo(nav.South, row, 1)
	}
	return z.result()
}

// IsoPlanner plans staggered isometric maps. Map rows are half a tile
// tall, so the row count is doubled and each row step is a diagonal that
// keeps the column: SouthEast from even rows, SouthWest from odd rows.
//
// Rows are counted from the floored start row, so when the top edge sits
// inside a row the bottom-most half row can be left out. Overdraw covers
// it in practice and the layers depend on this exact footprint.
type IsoPlanner struct{}

func NewIsoPlanner() IsoPlanner { return IsoPlanner{} }

func (IsoPlanner) Plan(v view.Viewport) []QueryPlan {
	start, _, r := worldExtent(v)
	tile := v.TileSize()
	origin := start.Floor()
	cols := int(math.Ceil(float64(r.Width)/float64(tile.Width))) + 1
	rows := 2 * int(math.Ceil(float64(r.Height)/float64(tile.Height)))

	raw := v.Navigator(view.RawSpace)
	mapNav := v.Navigator(view.MapSpace)
	var z zones
	row := origin
	for range rows {
		cur := row
		for range cols {
			z.add(mapNav, cur)
			cur, _ = raw.NavigateTo(nav.East, cur, 1)
		}
		d := nav.SouthEast
		if row.Y&1 != 0 {
			d = nav.SouthWest
		}
		row, _ = raw.NavigateTo(d, row, 1)
	}
	return z.result()
}

// ForGrid picks the planner matching a grid type.
func ForGrid(g nav.GridType) Planner {
	if g == nav.IsoStaggered {
		return NewIsoPlanner()
	}
	return NewGridPlanner()
}
