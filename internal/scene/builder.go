package scene

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"tileview/internal/classify"
	"tileview/internal/config"
	"tileview/internal/layer"
	"tileview/internal/maps"
	"tileview/internal/matcher"
	"tileview/internal/nav"
	"tileview/internal/plan"
	"tileview/internal/render"
	"tileview/internal/tile"
	"tileview/internal/view"
)

var (
	// ErrNoLayers is returned when no tileset layer applies to a map.
	ErrNoLayers = errors.New("scene: no layers for map")
	// ErrOrderMismatch is returned when tileset layers name a sort order
	// other than the configured one.
	ErrOrderMismatch = errors.New("scene: tileset sort order differs from render order")
)

// Options shape the views and layers a Builder makes. Order applies to
// every layer; tileset layers may repeat it but not contradict it.
type Options struct {
	Tile     view.Size
	Overdraw int
	Parallel bool
	ZLayer   int
	Order    layer.SortOrder
}

// Builder turns a map and the tileset into layer stacks, planners and
// views. Layer stacks hold per-frame buffers, so every session builds its
// own; the metadata, the matcher factory and the plan cache are shared.
type Builder struct {
	tileset *config.Tileset
	meta    *classify.MetadataStore
	factory *matcher.Factory
	markers *ViewerSet
	cache   *plan.SharedCache
	opts    Options
}

// NewBuilder prepares the tileset metadata. cache may be nil, in which
// case each planner caches only its own last plan.
func NewBuilder(ts *config.Tileset, markers *ViewerSet, cache *plan.SharedCache, opts Options) (*Builder, error) {
	for _, l := range ts.Layers {
		if l.Sort != "" && ts.Order() != opts.Order {
			return nil, fmt.Errorf("layer %q sorts %s, render order is %s: %w", l.Name, ts.Order(), opts.Order, ErrOrderMismatch)
		}
	}
	meta, err := ts.Metadata()
	if err != nil {
		return nil, err
	}
	return &Builder{
		tileset: ts,
		meta:    meta,
		factory: matcher.NewFactory(),
		markers: markers,
		cache:   cache,
		opts:    opts,
	}, nil
}

func (b *Builder) Metadata() *classify.MetadataStore { return b.meta }

// ViewerGlyph draws viewer markers unless the tileset says otherwise.
var ViewerGlyph = render.Glyph{Ch: '@', Fg: render.RGB{R: 255, G: 255, B: 85}, Bold: true}

// Atlas builds the tileset's atlas with the viewer glyph filled in.
func (b *Builder) Atlas() (*render.Atlas, error) {
	a, err := b.tileset.Atlas()
	if err != nil {
		return nil, err
	}
	if _, ok := b.tileset.Glyphs[string(ViewerTag)]; !ok {
		a.Define(string(ViewerTag), ViewerGlyph)
	}
	return a, nil
}

// Sources lists every data set a tileset layer can draw from on m: its
// tile layers, its objects and the viewer markers.
func (b *Builder) Sources(m *maps.Map) (map[string]tile.TileDataSet, error) {
	z := b.opts.ZLayer
	sources := make(map[string]tile.TileDataSet, len(m.Overlays)+3)
	for _, name := range m.LayerNames() {
		ds, err := maps.NewGridDataSet(m, name, z)
		if err != nil {
			return nil, err
		}
		sources[name] = ds
	}
	sources[config.SourceObjects] = maps.NewSparseDataSet(z, m.Objects()...)
	if b.markers != nil {
		sources[config.SourceViewers] = b.markers.ForMap(m.Name)
	}
	return sources, nil
}

// Root builds the combined layer for m. Tileset layers whose source the
// map lacks are skipped.
func (b *Builder) Root(m *maps.Map) (*layer.CombinedLayer, error) {
	sources, err := b.Sources(m)
	if err != nil {
		return nil, err
	}
	mapNav, err := m.Topology().MapNavigator()
	if err != nil {
		return nil, fmt.Errorf("map %q: %w", m.Name, err)
	}
	order := b.opts.Order
	log := logrus.WithField("map", m.Name)

	var layers []layer.RenderLayer
	for _, spec := range b.tileset.Layers {
		ds, ok := sources[spec.Source]
		if !ok {
			log.WithField("layer", spec.Name).Debug("map has no source for layer, skipping")
			continue
		}
		env := matcher.NewEnv(mapNav, ds, b.meta)
		for name, src := range sources {
			env.WithSource(name, src)
		}
		resolver, err := b.factory.Build(spec.Matcher, env)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", spec.Name, err)
		}
		l, err := layer.New(layer.Config{
			Name:     spec.Name,
			Data:     ds,
			Resolver: resolver,
			Order:    order,
			Parallel: b.opts.Parallel,
		})
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("map %q: %w", m.Name, ErrNoLayers)
	}
	return layer.NewCombined(layer.CombinedConfig{
		Name:     m.Name,
		Order:    order,
		Layers:   layers,
		Parallel: b.opts.Parallel,
	})
}

// Planner returns the planner for m's grid type, behind the shared cache
// when there is one.
func (b *Builder) Planner(m *maps.Map) plan.Planner {
	inner := plan.ForGrid(m.Grid)
	if b.cache != nil {
		return b.cache.Scoped(m.Name, inner)
	}
	return plan.NewCachingPlanner(inner)
}

// View makes a camera over m centred on the middle of cell focus.
func (b *Builder) View(m *maps.Map, bounds view.Rect, focus nav.MapCoordinate) (*view.View, error) {
	return view.New(view.Config{
		Bounds:   bounds,
		Overdraw: b.opts.Overdraw,
		Tile:     b.opts.Tile,
		Focus:    centre(focus),
		ZLayer:   b.opts.ZLayer,
		Topology: m.Topology(),
	})
}

func centre(c nav.MapCoordinate) nav.ContinuousMapCoordinate {
	return c.Continuous().Add(nav.AtF(0.5, 0.5))
}
