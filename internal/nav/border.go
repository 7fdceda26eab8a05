package nav

import (
	"errors"
	"fmt"
)

var (
	// ErrNilNavigator is returned when a decorator is built without a parent.
	ErrNilNavigator = errors.New("nav: parent navigator is nil")
	// ErrInvalidRange is returned for empty or inverted border ranges.
	ErrInvalidRange = errors.New("nav: invalid border range")
)

// Axis selects the coordinate a border decorator acts on.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

func (a Axis) get(c MapCoordinate) int {
	if a == AxisY {
		return c.Y
	}
	return c.X
}

func (a Axis) set(c MapCoordinate, v int) MapCoordinate {
	if a == AxisY {
		c.Y = v
	} else {
		c.X = v
	}
	return c
}

// WrapNavigator folds one axis into [lower, lower+size).
type WrapNavigator struct {
	parent Navigator
	axis   Axis
	lower  int
	size   int
}

// NewWrap wraps axis into the half-open range [lower, lower+size).
func NewWrap(parent Navigator, axis Axis, lower, size int) (*WrapNavigator, error) {
	if parent == nil {
		return nil, ErrNilNavigator
	}
	if size <= 0 {
		return nil, fmt.Errorf("wrap %s size %d: %w", axis, size, ErrInvalidRange)
	}
	return &WrapNavigator{parent: parent, axis: axis, lower: lower, size: size}, nil
}

func (w *WrapNavigator) NavigateTo(d Direction, origin MapCoordinate, steps int) (MapCoordinate, bool) {
	r, _, ok := w.Navigate(d, origin, steps)
	return r, ok
}

func (w *WrapNavigator) Navigate(d Direction, origin MapCoordinate, steps int) (MapCoordinate, NavigationInfo, bool) {
	r, info, ok := w.parent.Navigate(d, origin, steps)
	off := w.axis.get(r) - w.lower
	q := floorDiv(off, w.size)
	if q != 0 {
		r = w.axis.set(r, w.lower+off-q*w.size)
		if w.axis == AxisY {
			info = info.Merge(NavigationInfo{WrapY: q})
		} else {
			info = info.Merge(NavigationInfo{WrapX: q})
		}
	}
	return r, info, ok
}

// LimitNavigator clamps one axis into the inclusive range [lower, upper].
type LimitNavigator struct {
	parent Navigator
	axis   Axis
	lower  int
	upper  int
}

// NewLimit rejects moves that leave [lower, upper] on axis.
func NewLimit(parent Navigator, axis Axis, lower, upper int) (*LimitNavigator, error) {
	if parent == nil {
		return nil, ErrNilNavigator
	}
	if upper < lower {
		return nil, fmt.Errorf("limit %s [%d,%d]: %w", axis, lower, upper, ErrInvalidRange)
	}
	return &LimitNavigator{parent: parent, axis: axis, lower: lower, upper: upper}, nil
}

func (l *LimitNavigator) NavigateTo(d Direction, origin MapCoordinate, steps int) (MapCoordinate, bool) {
	r, _, ok := l.Navigate(d, origin, steps)
	return r, ok
}

func (l *LimitNavigator) Navigate(d Direction, origin MapCoordinate, steps int) (MapCoordinate, NavigationInfo, bool) {
	r, info, ok := l.parent.Navigate(d, origin, steps)
	v := l.axis.get(r)
	clamped := v
	if v < l.lower {
		clamped = l.lower
	} else if v > l.upper {
		clamped = l.upper
	}
	if clamped == v {
		return r, info, ok
	}
	if l.axis == AxisY {
		info = info.Merge(NavigationInfo{LimitedY: true})
	} else {
		info = info.Merge(NavigationInfo{LimitedX: true})
	}
	return l.axis.set(r, clamped), info, false
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
