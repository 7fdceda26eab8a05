package matcher

import (
	"fmt"

	"tileview/internal/nav"
	"tileview/internal/tile"
)

// Blob mask bits, one per neighbor.
const (
	BlobN uint8 = 1 << iota
	BlobNE
	BlobE
	BlobSE
	BlobS
	BlobSW
	BlobW
	BlobNW
)

var blobBits = [8]uint8{BlobN, BlobNE, BlobE, BlobSE, BlobS, BlobSW, BlobW, BlobNW}

// BlobMask folds neighbor hits in nav.All order into a mask. A diagonal
// only counts when both cardinals next to it are set.
func BlobMask(hits []bool) uint8 {
	var mask uint8
	for i, d := range nav.All {
		if !hits[i] {
			continue
		}
		if d.IsDiagonal() && !(hits[i-1] && hits[(i+1)%8]) {
			continue
		}
		mask |= blobBits[i]
	}
	return mask
}

func cardinalsOf(mask uint8) (n, e, s, w bool) {
	return mask&BlobN != 0, mask&BlobE != 0, mask&BlobS != 0, mask&BlobW != 0
}

// innerCorners lists the missing diagonals of a fully connected cell.
func innerCorners(mask uint8) []string {
	var parts []string
	if mask&BlobNW == 0 {
		parts = append(parts, "inner_nw")
	}
	if mask&BlobNE == 0 {
		parts = append(parts, "inner_ne")
	}
	if mask&BlobSW == 0 {
		parts = append(parts, "inner_sw")
	}
	if mask&BlobSE == 0 {
		parts = append(parts, "inner_se")
	}
	if len(parts) == 0 {
		return []string{"center"}
	}
	return parts
}

// BlobParts returns the blob part names drawn on a cell of the connected
// kind. Several inner corners are composited over the center.
func BlobParts(mask uint8) []string {
	n, e, s, w := cardinalsOf(mask)
	switch missing := count(!n, !e, !s, !w); {
	case missing >= 3:
		return []string{"center"}
	case missing == 2:
		switch {
		case !n && !w:
			return []string{"outer_nw"}
		case !n && !e:
			return []string{"outer_ne"}
		case !s && !w:
			return []string{"outer_sw"}
		case !s && !e:
			return []string{"outer_se"}
		}
		return []string{"center"}
	case missing == 1:
		return []string{"edge_" + missingSide(n, e, s)}
	}
	return innerCorners(mask)
}

// BorderParts returns the parts drawn on a cell bordering the connected
// kind. Edges and bends face away from the neighbor; nil means nothing
// is drawn.
func BorderParts(mask uint8) []string {
	n, e, s, w := cardinalsOf(mask)
	switch count(n, e, s, w) {
	case 0:
		return nil
	case 1:
		switch {
		case s:
			return []string{"edge_n"}
		case n:
			return []string{"edge_s"}
		case e:
			return []string{"edge_w"}
		}
		return []string{"edge_e"}
	case 2:
		switch {
		case s && e:
			return []string{"inner_nw"}
		case s && w:
			return []string{"inner_ne"}
		case n && e:
			return []string{"inner_sw"}
		case n && w:
			return []string{"inner_se"}
		}
		return nil
	case 3:
		return []string{"edge_" + missingSide(n, e, s)}
	}
	return innerCorners(mask)
}

func missingSide(n, e, s bool) string {
	switch {
	case !n:
		return "n"
	case !e:
		return "e"
	case !s:
		return "s"
	}
	return "w"
}

func count(bs ...bool) int {
	c := 0
	for _, b := range bs {
		if b {
			c++
		}
	}
	return c
}

// Corner is the 8-neighbor blob autotiler. In "blob" mode it draws the
// connected kind itself; in "border" mode it draws the transition onto
// cells that are not of that kind.
type Corner struct {
	neighborBase
	border bool
}

func buildCorner(m Model, env *Env, _ *Factory) (Matcher, error) {
	base, err := newNeighborBase(m, env)
	if err != nil {
		return nil, err
	}
	c := &Corner{neighborBase: base}
	switch m.Mode {
	case "", "blob":
	case "border":
		if len(m.Connect) == 0 {
			return nil, fmt.Errorf("%w: border mode needs connect classes", ErrInvalidModel)
		}
		if c.id == "" {
			c.id = m.Connect[0]
		}
		c.border = true
	default:
		return nil, fmt.Errorf("%w: corner mode %q", ErrInvalidModel, m.Mode)
	}
	return c, nil
}

func (c *Corner) Match(in tile.QueryResult, z int, out Collector) bool {
	if !c.accepts(in.Tag) {
		return false
	}
	if c.border && c.env.Meta.Classification(in.Tag).MatchesAny(c.target) {
		return false
	}
	mask := BlobMask(c.probe(in, z, nav.All[:]))
	parts := BlobParts(mask)
	if c.border {
		parts = BorderParts(mask)
	}
	if len(parts) == 0 {
		return false
	}
	sprite := c.sprite(in.Tag)
	for _, p := range parts {
		out.Collect(sprite.WithQualifier(p), tile.Whole)
	}
	return true
}
