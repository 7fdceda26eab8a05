package matcher

import (
	"tileview/internal/classify"
	"tileview/internal/nav"
	"tileview/internal/tile"
)

// neighborBase is shared by the matchers that look at adjacent cells.
type neighborBase struct {
	filter
	env    *Env
	data   tile.TileDataSet
	prefix string
	id     string
	target classify.Classification
}

func newNeighborBase(m Model, env *Env) (neighborBase, error) {
	if err := env.requireNeighbors(); err != nil {
		return neighborBase{}, err
	}
	f, err := newFilter(env, m.Tags, m.Classes, m.Flag)
	if err != nil {
		return neighborBase{}, err
	}
	data, err := env.source(m.Source)
	if err != nil {
		return neighborBase{}, err
	}
	target, err := env.compose(m.Connect)
	if err != nil {
		return neighborBase{}, err
	}
	return neighborBase{filter: f, env: env, data: data, prefix: m.Prefix, id: m.ID, target: target}, nil
}

func (n *neighborBase) sprite(tag tile.GraphicTag) tile.SpriteTag {
	s := spriteFor(n.prefix, tag)
	if n.id != "" {
		s.ID = n.id
	}
	return s
}

func (n *neighborBase) probe(in tile.QueryResult, z int, dirs []nav.Direction) []bool {
	return n.env.probe(n.data, in.Position.Normalize(), z, dirs, n.env.connects(in.Tag, n.target))
}

func (n *neighborBase) IsThreadSafe() bool { return threadSafe(n.data) }

// Cardinal picks a variant from the four orthogonal neighbors. The
// qualifier is one digit per direction in N, E, S, W order, e.g. "1010"
// for a north-south run.
type Cardinal struct {
	neighborBase
}

func buildCardinal(m Model, env *Env, _ *Factory) (Matcher, error) {
	base, err := newNeighborBase(m, env)
	if err != nil {
		return nil, err
	}
	return &Cardinal{neighborBase: base}, nil
}

func (c *Cardinal) Match(in tile.QueryResult, z int, out Collector) bool {
	if !c.accepts(in.Tag) {
		return false
	}
	hits := c.probe(in, z, nav.Cardinals[:])
	var q [4]byte
	for i, h := range hits {
		q[i] = digit(h)
	}
	out.Collect(c.sprite(in.Tag).WithQualifier(string(q[:])), tile.Whole)
	return true
}

// Diagonal is Cardinal for the diagonal neighbors, in NE, SE, SW, NW
// order, with a "d" in front of the digits.
type Diagonal struct {
	neighborBase
}

func buildDiagonal(m Model, env *Env, _ *Factory) (Matcher, error) {
	base, err := newNeighborBase(m, env)
	if err != nil {
		return nil, err
	}
	return &Diagonal{neighborBase: base}, nil
}

func (d *Diagonal) Match(in tile.QueryResult, z int, out Collector) bool {
	if !d.accepts(in.Tag) {
		return false
	}
	hits := d.probe(in, z, nav.Diagonals[:])
	q := [5]byte{'d'}
	for i, h := range hits {
		q[i+1] = digit(h)
	}
	out.Collect(d.sprite(in.Tag).WithQualifier(string(q[:])), tile.Whole)
	return true
}
