package matcher

import (
	"fmt"
	"strings"

	"tileview/internal/classify"
	"tileview/internal/nav"
	"tileview/internal/tile"
)

const maxCellGroups = 9

// corner quarters and the 2x2 block around each, clockwise from the top
// left. None stands for the cell itself.
var cellQuarters = [4]struct {
	name string
	pos  tile.SpritePosition
	dirs [4]nav.Direction
}{
	{"nw", tile.CellNorthWest, [4]nav.Direction{nav.NorthWest, nav.North, nav.None, nav.West}},
	{"ne", tile.CellNorthEast, [4]nav.Direction{nav.North, nav.NorthEast, nav.East, nav.None}},
	{"se", tile.CellSouthEast, [4]nav.Direction{nav.None, nav.East, nav.SouthEast, nav.South}},
	{"sw", tile.CellSouthWest, [4]nav.Direction{nav.West, nav.None, nav.South, nav.SouthWest}},
}

// CellGroup splits a cell into quarters and picks each quarter from the
// group numbers of the four cells meeting at that corner. Groups are
// numbered from 1 in declaration order; 0 is "no group". A quarter
// qualifier looks like "cell_nw_1101".
type CellGroup struct {
	neighborBase
	groups []classify.Classification
}

func buildCellGroup(m Model, env *Env, _ *Factory) (Matcher, error) {
	if len(m.Groups) == 0 || len(m.Groups) > maxCellGroups {
		return nil, fmt.Errorf("%w: cellgroup needs 1-%d groups, got %d", ErrInvalidModel, maxCellGroups, len(m.Groups))
	}
	base, err := newNeighborBase(m, env)
	if err != nil {
		return nil, err
	}
	cg := &CellGroup{neighborBase: base}
	for _, g := range m.Groups {
		c, err := env.compose(strings.Split(g, "|"))
		if err != nil {
			return nil, err
		}
		cg.groups = append(cg.groups, c)
	}
	return cg, nil
}

// groupOf returns the 1-based group of tag, or 0.
func (cg *CellGroup) groupOf(tag tile.GraphicTag) int {
	c := cg.env.Meta.Classification(tag)
	for i, g := range cg.groups {
		if c.MatchesAny(g) {
			return i + 1
		}
	}
	return 0
}

func (cg *CellGroup) Match(in tile.QueryResult, z int, out Collector) bool {
	if !cg.accepts(in.Tag) {
		return false
	}
	self := cg.groupOf(in.Tag)
	if self == 0 {
		return false
	}
	origin := in.Position.Normalize()
	var around [9]int // indexed by nav.Direction
	around[nav.None] = self
	var tags []tile.GraphicTag
	for _, d := range nav.All {
		var ok bool
		tags, ok = cg.env.neighborTags(cg.data, origin, d, z, tags[:0])
		if !ok {
			continue
		}
		for _, t := range tags {
			if g := cg.groupOf(t); g != 0 && (around[d] == 0 || g < around[d]) {
				around[d] = g
			}
		}
	}

	sprite := cg.sprite(in.Tag)
	for _, q := range cellQuarters {
		var b strings.Builder
		b.WriteString("cell_")
		b.WriteString(q.name)
		b.WriteByte('_')
		for _, d := range q.dirs {
			b.WriteByte(byte('0' + around[d]))
		}
		out.Collect(sprite.WithQualifier(b.String()), q.pos)
	}
	return true
}
