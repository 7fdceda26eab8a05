package nav

import "fmt"

// Direction is one of the eight compass directions, or None.
type Direction int8

const (
	None Direction = iota
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var directionNames = [...]string{"none", "n", "ne", "e", "se", "s", "sw", "w", "nw"}

// Cardinals lists the four orthogonal directions clockwise from North.
var Cardinals = [4]Direction{North, East, South, West}

// Diagonals lists the four diagonal directions clockwise from NorthEast.
var Diagonals = [4]Direction{NorthEast, SouthEast, SouthWest, NorthWest}

// All lists the eight compass directions clockwise from North.
var All = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// Valid reports whether d is None or a compass direction.
func (d Direction) Valid() bool {
	return d >= None && d <= NorthWest
}

// IsCardinal reports whether d is North, East, South or West.
func (d Direction) IsCardinal() bool {
	return d == North || d == East || d == South || d == West
}

// IsDiagonal reports whether d is one of the four diagonal directions.
func (d Direction) IsDiagonal() bool {
	return d == NorthEast || d == SouthEast || d == SouthWest || d == NorthWest
}

// Rotate turns d clockwise by steps * 45 degrees. None stays None.
func (d Direction) Rotate(steps int) Direction {
	mustBeValid(d)
	if d == None {
		return None
	}
	idx := (int(d) - 1 + steps) % 8
	if idx < 0 {
		idx += 8
	}
	return Direction(idx + 1)
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return d.Rotate(4)
}

// Delta returns the unit grid offset of d (North is -Y).
func (d Direction) Delta() MapCoordinate {
	mustBeValid(d)
	switch d {
	case North:
		return MapCoordinate{0, -1}
	case NorthEast:
		return MapCoordinate{1, -1}
	case East:
		return MapCoordinate{1, 0}
	case SouthEast:
		return MapCoordinate{1, 1}
	case South:
		return MapCoordinate{0, 1}
	case SouthWest:
		return MapCoordinate{-1, 1}
	case West:
		return MapCoordinate{-1, 0}
	case NorthWest:
		return MapCoordinate{-1, -1}
	}
	return MapCoordinate{}
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", int8(d))
	}
	return directionNames[d]
}

// ParseDirection accepts the short names produced by String.
func ParseDirection(s string) (Direction, error) {
	for i, n := range directionNames {
		if n == s {
			return Direction(i), nil
		}
	}
	return None, fmt.Errorf("unknown direction %q", s)
}

// mustBeValid aborts on an undefined direction value.
func mustBeValid(d Direction) {
	if !d.Valid() {
		panic(fmt.Sprintf("nav: undefined direction %d", int8(d)))
	}
}
