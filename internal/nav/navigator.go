package nav

// NavigationInfo reports what happened to a single navigation step at the
// map borders. WrapX/WrapY count how many times the result was folded back
// into the map (negative means it left through the low edge).
type NavigationInfo struct {
	WrapX    int
	WrapY    int
	LimitedX bool
	LimitedY bool
}

// Wrapped reports whether either axis wrapped.
func (n NavigationInfo) Wrapped() bool {
	return n.WrapX != 0 || n.WrapY != 0
}

// Limited reports whether either axis was clamped.
func (n NavigationInfo) Limited() bool {
	return n.LimitedX || n.LimitedY
}

// Merge accumulates the border effects of a follow-up step.
func (n NavigationInfo) Merge(o NavigationInfo) NavigationInfo {
	return NavigationInfo{
		WrapX:    n.WrapX + o.WrapX,
		WrapY:    n.WrapY + o.WrapY,
		LimitedX: n.LimitedX || o.LimitedX,
		LimitedY: n.LimitedY || o.LimitedY,
	}
}

// Navigator moves across a coordinate space in compass directions.
// ok is false when a border prevented the move; the result is then the
// clamped position and info says which axis was limited.
type Navigator interface {
	NavigateTo(d Direction, origin MapCoordinate, steps int) (MapCoordinate, bool)
	Navigate(d Direction, origin MapCoordinate, steps int) (MapCoordinate, NavigationInfo, bool)
}

// GridNavigator moves on a plain rectangular grid.
type GridNavigator struct{}

// NewGridNavigator returns the unbounded rectangular navigator.
func NewGridNavigator() GridNavigator {
	return GridNavigator{}
}

func (GridNavigator) NavigateTo(d Direction, origin MapCoordinate, steps int) (MapCoordinate, bool) {
	r, _, ok := GridNavigator{}.Navigate(d, origin, steps)
	return r, ok
}

func (GridNavigator) Navigate(d Direction, origin MapCoordinate, steps int) (MapCoordinate, NavigationInfo, bool) {
	mustBeValid(d)
	if d == None {
		return origin, NavigationInfo{}, true
	}
	delta := d.Delta()
	return MapCoordinate{X: origin.X + delta.X*steps, Y: origin.Y + delta.Y*steps}, NavigationInfo{}, true
}

// IsoStaggeredNavigator moves on a staggered isometric map where odd rows
// are shifted half a tile to the right. A diagonal step moves one row; a
// north/south step crosses two rows (two diagonal half steps). East/west
// stay on the row.
type IsoStaggeredNavigator struct{}

// NewIsoStaggeredNavigator returns the unbounded staggered isometric navigator.
func NewIsoStaggeredNavigator() IsoStaggeredNavigator {
	return IsoStaggeredNavigator{}
}

func (IsoStaggeredNavigator) NavigateTo(d Direction, origin MapCoordinate, steps int) (MapCoordinate, bool) {
	r, _, ok := IsoStaggeredNavigator{}.Navigate(d, origin, steps)
	return r, ok
}

func (IsoStaggeredNavigator) Navigate(d Direction, origin MapCoordinate, steps int) (MapCoordinate, NavigationInfo, bool) {
	mustBeValid(d)
	if d == None || steps == 0 {
		return origin, NavigationInfo{}, true
	}
	if steps < 0 {
		d = d.Opposite()
		steps = -steps
	}

	x, y := origin.X, origin.Y
	odd := y & 1
	switch d {
	case North:
		y -= 2 * steps
	case South:
		y += 2 * steps
	case East:
		x += steps
	case West:
		x -= steps
	case NorthEast:
		x += (steps + odd) / 2
		y -= steps
	case SouthEast:
		x += (steps + odd) / 2
		y += steps
	case NorthWest:
		x -= (steps + 1 - odd) / 2
		y -= steps
	case SouthWest:
		x -= (steps + 1 - odd) / 2
		y += steps
	}
	return MapCoordinate{X: x, Y: y}, NavigationInfo{}, true
}

// RotatedNavigator remaps directions by a fixed rotation before delegating.
type RotatedNavigator struct {
	parent Navigator
	steps  int
}

// NewRotated rotates every requested direction clockwise by steps * 45 degrees.
func NewRotated(parent Navigator, steps int) (*RotatedNavigator, error) {
	if parent == nil {
		return nil, ErrNilNavigator
	}
	steps %= 8
	if steps < 0 {
		steps += 8
	}
	return &RotatedNavigator{parent: parent, steps: steps}, nil
}

func (r *RotatedNavigator) NavigateTo(d Direction, origin MapCoordinate, steps int) (MapCoordinate, bool) {
	return r.parent.NavigateTo(d.Rotate(r.steps), origin, steps)
}

func (r *RotatedNavigator) Navigate(d Direction, origin MapCoordinate, steps int) (MapCoordinate, NavigationInfo, bool) {
	return r.parent.Navigate(d.Rotate(r.steps), origin, steps)
}
