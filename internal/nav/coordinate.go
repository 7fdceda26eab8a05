package nav

import (
	"fmt"
	"math"
)

// MapCoordinate is a cell address in map space.
type MapCoordinate struct {
	X, Y int
}

// At is shorthand for MapCoordinate{X: x, Y: y}.
func At(x, y int) MapCoordinate {
	return MapCoordinate{X: x, Y: y}
}

// Add returns the component-wise sum of c and o.
func (c MapCoordinate) Add(o MapCoordinate) MapCoordinate {
	return MapCoordinate{X: c.X + o.X, Y: c.Y + o.Y}
}

// Continuous converts the cell address into a continuous coordinate.
func (c MapCoordinate) Continuous() ContinuousMapCoordinate {
	return ContinuousMapCoordinate{X: float64(c.X), Y: float64(c.Y)}
}

func (c MapCoordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// ContinuousMapCoordinate is a map-space position with sub-tile precision.
type ContinuousMapCoordinate struct {
	X, Y float64
}

// AtF is shorthand for ContinuousMapCoordinate{X: x, Y: y}.
func AtF(x, y float64) ContinuousMapCoordinate {
	return ContinuousMapCoordinate{X: x, Y: y}
}

// Add returns the component-wise sum of c and o.
func (c ContinuousMapCoordinate) Add(o ContinuousMapCoordinate) ContinuousMapCoordinate {
	return ContinuousMapCoordinate{X: c.X + o.X, Y: c.Y + o.Y}
}

// Normalize rounds the position to the nearest cell.
func (c ContinuousMapCoordinate) Normalize() MapCoordinate {
	return MapCoordinate{X: int(math.Round(c.X)), Y: int(math.Round(c.Y))}
}

// Floor returns the cell containing the position.
func (c ContinuousMapCoordinate) Floor() MapCoordinate {
	return MapCoordinate{X: int(math.Floor(c.X)), Y: int(math.Floor(c.Y))}
}

func (c ContinuousMapCoordinate) String() string {
	return fmt.Sprintf("(%g,%g)", c.X, c.Y)
}
