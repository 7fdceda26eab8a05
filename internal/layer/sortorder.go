package layer

import (
	"cmp"
	"fmt"
	"strings"

	"tileview/internal/tile"
)

// SortOrder is a total order over screen instructions: screen Y first,
// then screen X, then insertion order.
type SortOrder int

const (
	TopDownLeftRight SortOrder = iota
	TopDownRightLeft
	BottomUpLeftRight
	BottomUpRightLeft
)

var sortOrderNames = [...]string{"top-down-left-right", "top-down-right-left", "bottom-up-left-right", "bottom-up-right-left"}

func (s SortOrder) String() string {
	if s < 0 || int(s) >= len(sortOrderNames) {
		return fmt.Sprintf("SortOrder(%d)", int(s))
	}
	return sortOrderNames[s]
}

// ParseSortOrder accepts the String form, case-insensitively.
func ParseSortOrder(v string) (SortOrder, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return TopDownLeftRight, nil
	}
	for i, name := range sortOrderNames {
		if name == v {
			return SortOrder(i), nil
		}
	}
	return TopDownLeftRight, fmt.Errorf("unknown sort order %q", v)
}

func (s SortOrder) bottomUp() bool { return s == BottomUpLeftRight || s == BottomUpRightLeft }
func (s SortOrder) rightLeft() bool { return s == TopDownRightLeft || s == BottomUpRightLeft }

// Compare orders a before b (negative), after b (positive) or neither.
func (s SortOrder) Compare(a, b tile.ScreenRenderInstruction) int {
	if c := s.CompareScreen(a, b); c != 0 {
		return c
	}
	return cmp.Compare(a.Order, b.Order)
}

// CompareScreen orders by screen position only. Order is a per-layer
// counter, so instructions from different layers compare with this.
func (s SortOrder) CompareScreen(a, b tile.ScreenRenderInstruction) int {
	if c := cmp.Compare(a.Screen.Y, b.Screen.Y); c != 0 {
		if s.bottomUp() {
			return -c
		}
		return c
	}
	if c := cmp.Compare(a.Screen.X, b.Screen.X); c != 0 {
		if s.rightLeft() {
			return -c
		}
		return c
	}
	return 0
}
