package nav

import (
	"errors"
	"fmt"
	"strings"
)

// GridType selects the base coordinate layout.
type GridType int

const (
	Grid GridType = iota
	IsoStaggered
)

func (g GridType) String() string {
	if g == IsoStaggered {
		return "iso-staggered"
	}
	return "grid"
}

// ParseGridType accepts "grid" and "iso-staggered" (or "iso").
func ParseGridType(s string) (GridType, error) {
	switch strings.ToLower(s) {
	case "", "grid":
		return Grid, nil
	case "iso", "iso-staggered", "isometric":
		return IsoStaggered, nil
	}
	return Grid, fmt.Errorf("unknown grid type %q", s)
}

// BorderMode is the behaviour of a map edge.
type BorderMode int

const (
	Open BorderMode = iota
	Wrap
	Limit
)

// Border describes one axis of the map: cells [Lower, Lower+Size).
type Border struct {
	Mode  BorderMode
	Lower int
	Size  int
}

// Upper returns the last valid cell on the axis.
func (b Border) Upper() int {
	return b.Lower + b.Size - 1
}

// Topology is a declarative description of a map's navigation space.
type Topology struct {
	GridType GridType
	Rotation int
	X        Border
	Y        Border
}

// BaseNavigator returns the unbounded navigator for the grid type.
func (t Topology) BaseNavigator() Navigator {
	if t.GridType == IsoStaggered {
		return NewIsoStaggeredNavigator()
	}
	return NewGridNavigator()
}

// MapNavigator composes the border decorators on top of BaseNavigator.
func (t Topology) MapNavigator() (Navigator, error) {
	if t.GridType == IsoStaggered && t.Y.Mode == Wrap && t.Y.Size%2 != 0 {
		return nil, fmt.Errorf("staggered map wraps on odd height %d: %w", t.Y.Size, ErrInvalidRange)
	}
	n, err := decorate(t.BaseNavigator(), AxisX, t.X)
	if err != nil {
		return nil, err
	}
	return decorate(n, AxisY, t.Y)
}

// ScreenNavigator is MapNavigator with the fixed rotation applied, so that
// directions are interpreted as seen on screen.
func (t Topology) ScreenNavigator() (Navigator, error) {
	n, err := t.MapNavigator()
	if err != nil {
		return nil, err
	}
	if t.Rotation%8 == 0 {
		return n, nil
	}
	return NewRotated(n, t.Rotation)
}

func decorate(n Navigator, axis Axis, b Border) (Navigator, error) {
	switch b.Mode {
	case Wrap:
		return NewWrap(n, axis, b.Lower, b.Size)
	case Limit:
		if b.Size <= 0 {
			return nil, fmt.Errorf("limit %s size %d: %w", axis, b.Size, ErrInvalidRange)
		}
		return NewLimit(n, axis, b.Lower, b.Upper())
	case Open:
		return n, nil
	}
	return nil, errors.New("nav: unknown border mode")
}
