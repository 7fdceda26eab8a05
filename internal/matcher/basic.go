package matcher

import (
	"tileview/internal/tile"
)

// Basic emits the input tag itself.
type Basic struct {
	filter
	prefix string
	id     string
}

func buildBasic(m Model, env *Env, _ *Factory) (Matcher, error) {
	f, err := newFilter(env, m.Tags, m.Classes, m.Flag)
	if err != nil {
		return nil, err
	}
	return &Basic{filter: f, prefix: m.Prefix, id: m.ID}, nil
}

func (b *Basic) Match(in tile.QueryResult, _ int, out Collector) bool {
	if !b.accepts(in.Tag) {
		return false
	}
	tag := spriteFor(b.prefix, in.Tag)
	if b.id != "" {
		tag.ID = b.id
	}
	out.Collect(tag, tile.Whole)
	return true
}

func (b *Basic) IsThreadSafe() bool { return true }
