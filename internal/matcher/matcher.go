// Package matcher resolves graphic tags into sprite selections. Matchers
// are built from a Model tree through a Factory keyed by kind.
package matcher

import (
	"errors"
	"fmt"

	"tileview/internal/classify"
	"tileview/internal/collections"
	"tileview/internal/nav"
	"tileview/internal/tile"
)

var (
	ErrUnknownKind  = errors.New("matcher: unknown kind")
	ErrInvalidModel = errors.New("matcher: invalid model")
	ErrMissingEnv   = errors.New("matcher: environment is missing a collaborator")
)

// Selection is one sprite chosen for an input.
type Selection struct {
	Tag      tile.SpriteTag
	Position tile.SpritePosition
}

// Collector receives selections from a matcher.
type Collector interface {
	Collect(tag tile.SpriteTag, pos tile.SpritePosition)
}

// Selections is the plain slice Collector.
type Selections []Selection

func (s *Selections) Collect(tag tile.SpriteTag, pos tile.SpritePosition) {
	*s = append(*s, Selection{Tag: tag, Position: pos})
}

// Matcher turns one query result into zero or more selections. Match
// reports whether anything was collected.
type Matcher interface {
	Match(in tile.QueryResult, z int, out Collector) bool
	// IsThreadSafe reports whether Match may run concurrently with itself.
	IsThreadSafe() bool
}

// Env holds what matchers consult at match time.
type Env struct {
	Navigator nav.Navigator
	Data      tile.TileDataSet
	Sources   map[string]tile.TileDataSet
	Meta      *classify.MetadataStore

	scratch *collections.SlicePool[tile.QueryResult]
}

// NewEnv builds an Env for neighbor lookups through n into data.
func NewEnv(n nav.Navigator, data tile.TileDataSet, meta *classify.MetadataStore) *Env {
	return &Env{
		Navigator: n,
		Data:      data,
		Sources:   make(map[string]tile.TileDataSet),
		Meta:      meta,
		scratch:   collections.NewSlicePool[tile.QueryResult](32, 8),
	}
}

// WithSource registers an auxiliary data set under name.
func (e *Env) WithSource(name string, ds tile.TileDataSet) *Env {
	e.Sources[name] = ds
	return e
}

func (e *Env) source(name string) (tile.TileDataSet, error) {
	if name == "" {
		if e.Data == nil {
			return nil, fmt.Errorf("primary data set: %w", ErrMissingEnv)
		}
		return e.Data, nil
	}
	ds, ok := e.Sources[name]
	if !ok || ds == nil {
		return nil, fmt.Errorf("source %q: %w", name, ErrMissingEnv)
	}
	return ds, nil
}

func (e *Env) requireNeighbors() error {
	if e.Navigator == nil {
		return fmt.Errorf("navigator: %w", ErrMissingEnv)
	}
	if e.Meta == nil {
		return fmt.Errorf("metadata: %w", ErrMissingEnv)
	}
	return nil
}

// compose resolves class names through the metadata registry.
func (e *Env) compose(names []string) (classify.Classification, error) {
	if len(names) == 0 {
		return 0, nil
	}
	if e.Meta == nil {
		return 0, fmt.Errorf("metadata: %w", ErrMissingEnv)
	}
	c, err := e.Meta.Registry().Compose(names...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	return c, nil
}

// neighborTags appends the tags found one step from origin towards d.
// ok is false when the step leaves a limited map.
func (e *Env) neighborTags(data tile.TileDataSet, origin nav.MapCoordinate, d nav.Direction, z int, out []tile.GraphicTag) ([]tile.GraphicTag, bool) {
	c, ok := e.Navigator.NavigateTo(d, origin, 1)
	if !ok {
		return out, false
	}
	buf := e.scratch.Get()
	buf = data.QueryPoint(c, z, buf)
	for _, r := range buf {
		out = append(out, r.Tag)
	}
	e.scratch.Put(buf)
	return out, true
}

// probe reports for each direction whether the neighbor there holds a
// tag accepted by accept.
func (e *Env) probe(data tile.TileDataSet, origin nav.MapCoordinate, z int, dirs []nav.Direction, accept func(tile.GraphicTag) bool) []bool {
	hits := make([]bool, len(dirs))
	var tags []tile.GraphicTag
	for i, d := range dirs {
		var ok bool
		tags, ok = e.neighborTags(data, origin, d, z, tags[:0])
		if !ok {
			continue
		}
		for _, t := range tags {
			if accept(t) {
				hits[i] = true
				break
			}
		}
	}
	return hits
}

// connects returns the neighbor test used by the autotiling matchers:
// neighbors connect when they share a class with target, or with self
// when target is empty. Unclassified tags only connect to themselves.
func (e *Env) connects(self tile.GraphicTag, target classify.Classification) func(tile.GraphicTag) bool {
	if target.IsEmpty() {
		target = e.Meta.Classification(self)
	}
	if target.IsEmpty() {
		return func(t tile.GraphicTag) bool { return t == self }
	}
	return func(t tile.GraphicTag) bool {
		return e.Meta.Classification(t).MatchesAny(target)
	}
}

// filter restricts a matcher to some tags or classes. An empty filter
// accepts everything.
type filter struct {
	tags    map[tile.GraphicTag]bool
	classes classify.Classification
	flag    string
	meta    *classify.MetadataStore
}

func newFilter(env *Env, tags, classes []string, flag string) (filter, error) {
	f := filter{flag: flag, meta: env.Meta}
	if len(tags) > 0 {
		f.tags = make(map[tile.GraphicTag]bool, len(tags))
		for _, t := range tags {
			f.tags[tile.GraphicTag(t)] = true
		}
	}
	c, err := env.compose(classes)
	if err != nil {
		return f, err
	}
	f.classes = c
	if flag != "" && env.Meta == nil {
		return f, fmt.Errorf("flag %q: %w", flag, ErrMissingEnv)
	}
	return f, nil
}

func (f filter) accepts(tag tile.GraphicTag) bool {
	if f.tags != nil && !f.tags[tag] {
		return false
	}
	if !f.classes.IsEmpty() && !f.meta.Classification(tag).MatchesAny(f.classes) {
		return false
	}
	if f.flag != "" && !f.meta.HasFlag(tag, f.flag) {
		return false
	}
	return true
}

func spriteFor(prefix string, tag tile.GraphicTag) tile.SpriteTag {
	return tile.SpriteTag{Prefix: prefix, ID: string(tag)}
}

func digit(b bool) byte {
	if b {
		return '1'
	}
	return '0'
}

func threadSafe(sources ...tile.TileDataSet) bool {
	for _, s := range sources {
		if s != nil && !s.IsThreadSafe() {
			return false
		}
	}
	return true
}
