package matcher

import (
	"strconv"

	"tileview/internal/classify"
	"tileview/internal/nav"
	"tileview/internal/tile"
)

const (
	// BlendFlag marks tags that bleed onto lower-priority neighbors.
	BlendFlag = "blend"
	// BlendPriorityProperty orders blending tags; higher draws over lower.
	BlendPriorityProperty = "blend_priority"
)

// Blend looks at the cardinal neighbors in an auxiliary data set and
// emits an edge sprite for every neighbor that blends over this cell.
// The sprite id is the neighbor's tag and the qualifier the direction the
// neighbor lies in.
type Blend struct {
	filter
	env    *Env
	aux    tile.TileDataSet
	prefix string
	target classify.Classification
}

func buildBlend(m Model, env *Env, _ *Factory) (Matcher, error) {
	if err := env.requireNeighbors(); err != nil {
		return nil, err
	}
	f, err := newFilter(env, m.Tags, m.Classes, m.Flag)
	if err != nil {
		return nil, err
	}
	aux, err := env.source(m.Source)
	if err != nil {
		return nil, err
	}
	target, err := env.compose(m.Connect)
	if err != nil {
		return nil, err
	}
	prefix := m.Prefix
	if prefix == "" {
		prefix = "blend"
	}
	return &Blend{filter: f, env: env, aux: aux, prefix: prefix, target: target}, nil
}

func (b *Blend) priority(tag tile.GraphicTag) int {
	v, ok := b.env.Meta.Property(tag, BlendPriorityProperty)
	if !ok {
		return 0
	}
	p, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return p
}

func (b *Blend) blendsOver(self tile.GraphicTag, selfPriority int, other tile.GraphicTag) (int, bool) {
	if other == self || !b.env.Meta.HasFlag(other, BlendFlag) {
		return 0, false
	}
	if !b.target.IsEmpty() && !b.env.Meta.Classification(other).MatchesAny(b.target) {
		return 0, false
	}
	p := b.priority(other)
	return p, p > selfPriority
}

func (b *Blend) Match(in tile.QueryResult, z int, out Collector) bool {
	if !b.accepts(in.Tag) {
		return false
	}
	selfPriority := b.priority(in.Tag)
	origin := in.Position.Normalize()
	matched := false
	var tags []tile.GraphicTag
	for _, d := range nav.Cardinals {
		var ok bool
		tags, ok = b.env.neighborTags(b.aux, origin, d, z, tags[:0])
		if !ok {
			continue
		}
		var best tile.GraphicTag
		bestPriority, found := 0, false
		for _, t := range tags {
			if p, ok := b.blendsOver(in.Tag, selfPriority, t); ok && (!found || p > bestPriority) {
				best, bestPriority, found = t, p, true
			}
		}
		if !found {
			continue
		}
		out.Collect(tile.SpriteTag{Prefix: b.prefix, ID: string(best), Qualifier: d.String()}, tile.EdgePosition(d))
		matched = true
	}
	return matched
}

func (b *Blend) IsThreadSafe() bool { return threadSafe(b.aux) }
