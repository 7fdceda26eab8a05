package view

import (
	"errors"
	"fmt"
	"math"

	"tileview/internal/nav"
)

// Space selects which navigator a caller wants from a Viewport.
type Space int

const (
	// MapSpace honours wrap and limit borders; directions are map directions.
	MapSpace Space = iota
	// ScreenSpace is MapSpace with the view rotation applied.
	ScreenSpace
	// RawSpace has no borders at all.
	RawSpace
)

// Rect is a pixel rectangle.
type Rect struct {
	X, Y, Width, Height int
}

// Expand grows the rectangle by m pixels on every side.
func (r Rect) Expand(m int) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, Width: r.Width + 2*m, Height: r.Height + 2*m}
}

// Size is a width/height pair in pixels.
type Size struct {
	Width, Height int
}

// ScreenPosition is a pixel position, usually the top-left of a sprite.
type ScreenPosition struct {
	X, Y float64
}

// Viewport is everything the query planner and the layers need to know
// about the camera.
type Viewport interface {
	PixelBounds() Rect
	PixelOverdraw() int
	Focus() nav.ContinuousMapCoordinate
	ZLayer() int
	TileSize() Size
	GridType() nav.GridType
	Navigator(s Space) nav.Navigator

	ScreenToWorld(p ScreenPosition) nav.ContinuousMapCoordinate
	WorldToScreen(c nav.ContinuousMapCoordinate) ScreenPosition
	// VisibleScreenPositions appends every screen position at which map
	// position c is visible. On wrapping maps the same cell can appear
	// more than once.
	VisibleScreenPositions(c nav.ContinuousMapCoordinate, out []ScreenPosition) []ScreenPosition
}

// Config describes a camera over a map.
type Config struct {
	Bounds   Rect
	Overdraw int
	Tile     Size
	Focus    nav.ContinuousMapCoordinate
	ZLayer   int
	Topology nav.Topology
}

// ErrInvalidConfig is returned for degenerate viewport settings.
var ErrInvalidConfig = errors.New("view: invalid viewport config")

// View is the concrete camera. The focus is rendered at the centre of the
// pixel bounds. A View is owned by one session and is not safe for
// concurrent mutation.
type View struct {
	bounds   Rect
	overdraw int
	tile     Size
	focus    nav.ContinuousMapCoordinate
	z        int
	topo     nav.Topology

	raw    nav.Navigator
	mapNav nav.Navigator
	screen nav.Navigator
}

// New validates cfg and builds the navigators for its topology.
func New(cfg Config) (*View, error) {
	if cfg.Tile.Width <= 0 || cfg.Tile.Height <= 0 {
		return nil, fmt.Errorf("tile size %dx%d: %w", cfg.Tile.Width, cfg.Tile.Height, ErrInvalidConfig)
	}
	if cfg.Topology.GridType == nav.IsoStaggered && cfg.Tile.Height%2 != 0 {
		return nil, fmt.Errorf("staggered tile height %d must be even: %w", cfg.Tile.Height, ErrInvalidConfig)
	}
	if cfg.Bounds.Width < 0 || cfg.Bounds.Height < 0 || cfg.Overdraw < 0 {
		return nil, fmt.Errorf("bounds %+v overdraw %d: %w", cfg.Bounds, cfg.Overdraw, ErrInvalidConfig)
	}
	mapNav, err := cfg.Topology.MapNavigator()
	if err != nil {
		return nil, fmt.Errorf("map navigator: %w", err)
	}
	screen, err := cfg.Topology.ScreenNavigator()
	if err != nil {
		return nil, fmt.Errorf("screen navigator: %w", err)
	}
	return &View{
		bounds:   cfg.Bounds,
		overdraw: cfg.Overdraw,
		tile:     cfg.Tile,
		focus:    cfg.Focus,
		z:        cfg.ZLayer,
		topo:     cfg.Topology,
		raw:      cfg.Topology.BaseNavigator(),
		mapNav:   mapNav,
		screen:   screen,
	}, nil
}

func (v *View) PixelBounds() Rect { return v.bounds }
func (v *View) PixelOverdraw() int { return v.overdraw }
func (v *View) Focus() nav.ContinuousMapCoordinate { return v.focus }
func (v *View) ZLayer() int { return v.z }
func (v *View) TileSize() Size { return v.tile }
func (v *View) GridType() nav.GridType { return v.topo.GridType }
func (v *View) Topology() nav.Topology { return v.topo }
func (v *View) SetFocus(c nav.ContinuousMapCoordinate) { v.focus = c }
func (v *View) SetZLayer(z int) { v.z = z }
func (v *View) SetBounds(r Rect) { v.bounds = r }

// SetOverdraw changes the pixel margin rendered outside the bounds.
func (v *View) SetOverdraw(px int) {
	if px < 0 {
		px = 0
	}
	v.overdraw = px
}

func (v *View) Navigator(s Space) nav.Navigator {
	switch s {
	case ScreenSpace:
		return v.screen
	case RawSpace:
		return v.raw
	}
	return v.mapNav
}

func (v *View) center() (float64, float64) {
	return float64(v.bounds.X) + float64(v.bounds.Width)/2, float64(v.bounds.Y) + float64(v.bounds.Height)/2
}

// toPixel maps a map position into unscrolled pixel space.
func (v *View) toPixel(c nav.ContinuousMapCoordinate) (float64, float64) {
	tw, th := float64(v.tile.Width), float64(v.tile.Height)
	if v.topo.GridType == nav.IsoStaggered {
		return (c.X + 0.5*stagger(c.Y)) * tw, c.Y * th / 2
	}
	return c.X * tw, c.Y * th
}

func (v *View) fromPixel(px, py float64) nav.ContinuousMapCoordinate {
	tw, th := float64(v.tile.Width), float64(v.tile.Height)
	if v.topo.GridType == nav.IsoStaggered {
		y := py / (th / 2)
		return nav.AtF(px/tw-0.5*stagger(y), y)
	}
	return nav.AtF(px/tw, py/th)
}

// stagger is the horizontal half-tile shift of a (possibly fractional)
// staggered row: 0 on even rows, 1 on odd rows, linear in between.
func stagger(y float64) float64 {
	m := math.Mod(y, 2)
	if m < 0 {
		m += 2
	}
	if m <= 1 {
		return m
	}
	return 2 - m
}

func (v *View) WorldToScreen(c nav.ContinuousMapCoordinate) ScreenPosition {
	cx, cy := v.center()
	px, py := v.toPixel(c)
	fx, fy := v.toPixel(v.focus)
	return ScreenPosition{X: cx + px - fx, Y: cy + py - fy}
}

func (v *View) ScreenToWorld(p ScreenPosition) nav.ContinuousMapCoordinate {
	cx, cy := v.center()
	fx, fy := v.toPixel(v.focus)
	return v.fromPixel(p.X-cx+fx, p.Y-cy+fy)
}

// visible reports whether a tile drawn at p intersects the overdraw rect.
func (v *View) visible(p ScreenPosition) bool {
	r := v.bounds.Expand(v.overdraw)
	return p.X+float64(v.tile.Width) > float64(r.X) && p.X < float64(r.X+r.Width) &&
		p.Y+float64(v.tile.Height) > float64(r.Y) && p.Y < float64(r.Y+r.Height)
}

// wrapRepeats returns how many map widths (or heights) either side of the
// focus can be visible at once.
func (v *View) wrapRepeats(b nav.Border, pixelsPerCell float64, extent int) int {
	if b.Mode != nav.Wrap {
		return 0
	}
	span := float64(b.Size) * pixelsPerCell
	return int(math.Ceil(float64(extent)/span)) + 1
}

func (v *View) VisibleScreenPositions(c nav.ContinuousMapCoordinate, out []ScreenPosition) []ScreenPosition {
	r := v.bounds.Expand(v.overdraw)
	rowHeight := float64(v.tile.Height)
	if v.topo.GridType == nav.IsoStaggered {
		rowHeight /= 2
	}
	nx := v.wrapRepeats(v.topo.X, float64(v.tile.Width), r.Width)
	ny := v.wrapRepeats(v.topo.Y, rowHeight, r.Height)

	for ky := -ny; ky <= ny; ky++ {
		for kx := -nx; kx <= nx; kx++ {
			shifted := nav.AtF(c.X+float64(kx*v.topo.X.Size), c.Y+float64(ky*v.topo.Y.Size))
			p := v.WorldToScreen(shifted)
			if v.visible(p) {
				out = append(out, p)
			}
		}
	}
	return out
}
