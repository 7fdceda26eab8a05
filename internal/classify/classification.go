// Package classify assigns named classes to bit positions and keeps the
// static per-tag rule table the matchers consult.
package classify

import (
	"math/bits"
)

// MaxWidth is the largest supported classification width.
const MaxWidth = 64

// Classification is a fixed-width set of class memberships.
type Classification uint64

// Bit returns the classification holding only position pos.
func Bit(pos int) Classification {
	if pos < 0 || pos >= MaxWidth {
		panic("classify: bit position out of range")
	}
	return Classification(1) << uint(pos)
}

// Merge is the union of c and o.
func (c Classification) Merge(o Classification) Classification { return c | o }

// Matching is the intersection of c and o.
func (c Classification) Matching(o Classification) Classification { return c & o }

// MatchesAny reports whether c and o share at least one class.
func (c Classification) MatchesAny(o Classification) bool { return c&o != 0 }

func (c Classification) IsEmpty() bool { return c == 0 }

// Has reports whether bit pos is set.
func (c Classification) Has(pos int) bool {
	return pos >= 0 && pos < MaxWidth && c&(1<<uint(pos)) != 0
}

func (c Classification) Count() int { return bits.OnesCount64(uint64(c)) }

// Positions lists the set bit positions in ascending order.
func (c Classification) Positions() []int {
	out := make([]int, 0, c.Count())
	for v := uint64(c); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v))
	}
	return out
}
