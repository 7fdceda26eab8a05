package maps

import (
	"fmt"

	"tileview/internal/nav"
	"tileview/internal/plan"
	"tileview/internal/tile"
)

// Cell is the entity a GridDataSet reports for each occupied cell.
type Cell struct {
	X, Y int
	Def  TileDef
}

// GridDataSet exposes one dense tile layer of a Map. It only answers
// queries for its own z layer. Maps are immutable once loaded, so the
// data set is safe for concurrent queries.
type GridDataSet struct {
	m     *Map
	name  string
	tiles [][]int
	z     int
}

// NewGridDataSet returns the named layer of m at depth z.
func NewGridDataSet(m *Map, layer string, z int) (*GridDataSet, error) {
	tiles, ok := m.layer(layer)
	if !ok {
		return nil, fmt.Errorf("map %q has no layer %q: %w", m.Name, layer, ErrInvalidMap)
	}
	return &GridDataSet{m: m, name: layer, tiles: tiles, z: z}, nil
}

func (g *GridDataSet) Name() string { return g.name }

func (g *GridDataSet) IsThreadSafe() bool { return true }

func (g *GridDataSet) at(x, y int) (tile.QueryResult, bool) {
	idx := g.tiles[y][x]
	if idx < 0 {
		return tile.QueryResult{}, false
	}
	def := g.m.Legend[idx]
	return tile.QueryResult{
		Tag:      def.Tag(),
		Entity:   Cell{X: x, Y: y, Def: def},
		Position: nav.At(x, y).Continuous(),
	}, true
}

// QuerySparse scans the part of area that overlaps the map.
func (g *GridDataSet) QuerySparse(area plan.Area, z int, out []tile.QueryResult) []tile.QueryResult {
	out = out[:0]
	if z != g.z {
		return out
	}
	area = area.Intersect(plan.Area{Width: g.m.Width, Height: g.m.Height})
	for c := range area.Cells() {
		if r, ok := g.at(c.X, c.Y); ok {
			out = append(out, r)
		}
	}
	return out
}

func (g *GridDataSet) QueryPoint(c nav.MapCoordinate, z int, out []tile.QueryResult) []tile.QueryResult {
	out = out[:0]
	if z != g.z || !g.m.Contains(c.X, c.Y) {
		return out
	}
	if r, ok := g.at(c.X, c.Y); ok {
		out = append(out, r)
	}
	return out
}

// Object is a free-standing entity on a map.
type Object struct {
	Tag      tile.GraphicTag
	Position nav.ContinuousMapCoordinate
	Entity   any
}

// SparseDataSet holds a fixed list of objects and answers queries by
// scanning it. It is immutable after construction.
type SparseDataSet struct {
	objects []Object
	z       int
}

func NewSparseDataSet(z int, objects ...Object) *SparseDataSet {
	return &SparseDataSet{objects: objects, z: z}
}

func (s *SparseDataSet) IsThreadSafe() bool { return true }

func (s *SparseDataSet) Len() int { return len(s.objects) }

func (s *SparseDataSet) query(z int, keep func(nav.MapCoordinate) bool, out []tile.QueryResult) []tile.QueryResult {
	out = out[:0]
	if z != s.z {
		return out
	}
	for _, o := range s.objects {
		if keep(o.Position.Floor()) {
			out = append(out, tile.QueryResult{Tag: o.Tag, Entity: o.Entity, Position: o.Position})
		}
	}
	return out
}

func (s *SparseDataSet) QuerySparse(area plan.Area, z int, out []tile.QueryResult) []tile.QueryResult {
	return s.query(z, area.Contains, out)
}

func (s *SparseDataSet) QueryPoint(c nav.MapCoordinate, z int, out []tile.QueryResult) []tile.QueryResult {
	return s.query(z, func(p nav.MapCoordinate) bool { return p == c }, out)
}

// Tags for the objects a map carries besides its tile layers.
const (
	PortalTag tile.GraphicTag = "portal"
	SpawnTag  tile.GraphicTag = "spawn"
)

// Objects lists the map's portals and its spawn marker.
func (m *Map) Objects() []Object {
	objs := make([]Object, 0, len(m.Portals)+1)
	objs = append(objs, Object{
		Tag:      SpawnTag,
		Position: nav.At(m.SpawnX, m.SpawnY).Continuous(),
		Entity:   Spawn{X: m.SpawnX, Y: m.SpawnY},
	})
	for i := range m.Portals {
		p := &m.Portals[i]
		objs = append(objs, Object{Tag: PortalTag, Position: nav.At(p.X, p.Y).Continuous(), Entity: p})
	}
	return objs
}
