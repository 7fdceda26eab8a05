// Package layer turns query plans into sorted screen instructions. A
// Layer prepares one data source; a CombinedLayer merges several.
package layer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tileview/internal/collections"
	"tileview/internal/matcher"
	"tileview/internal/plan"
	"tileview/internal/tile"
	"tileview/internal/view"
)

var ErrNilCollaborator = errors.New("layer: required collaborator is nil")

// RenderLayer is anything that prepares a sorted instruction buffer.
// The returned slice is owned by the layer and valid until the next
// call to PrepareRenderLayer.
type RenderLayer interface {
	Name() string
	SortOrder() SortOrder
	IsThreadSafe() bool
	PrepareRenderLayer(ctx context.Context, v view.Viewport, plans []plan.QueryPlan) ([]tile.ScreenRenderInstruction, error)
}

// Config binds a data source, a resolver and a sort order.
type Config struct {
	Name     string
	Data     tile.TileDataSet
	Resolver matcher.Matcher
	Order    SortOrder
	// Renderer is only needed for Render.
	Renderer tile.TileRenderer
	// Parallel prepares query plans concurrently when the data source
	// and resolver are thread-safe.
	Parallel bool
}

// Layer prepares one data source. It must not be prepared concurrently
// with itself.
type Layer struct {
	cfg Config
	log *logrus.Entry

	queries  *collections.SlicePool[tile.QueryResult]
	resolved *collections.SlicePool[tile.RenderInstruction]
	screens  []view.ScreenPosition
	out      []tile.ScreenRenderInstruction
}

func New(cfg Config) (*Layer, error) {
	if cfg.Data == nil {
		return nil, fmt.Errorf("layer %q data: %w", cfg.Name, ErrNilCollaborator)
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("layer %q resolver: %w", cfg.Name, ErrNilCollaborator)
	}
	return &Layer{
		cfg:      cfg,
		log:      logrus.WithField("layer", cfg.Name),
		queries:  collections.NewSlicePool[tile.QueryResult](9, 256),
		resolved: collections.NewSlicePool[tile.RenderInstruction](9, 256),
	}, nil
}

func (l *Layer) Name() string { return l.cfg.Name }
func (l *Layer) SortOrder() SortOrder { return l.cfg.Order }

func (l *Layer) IsThreadSafe() bool {
	return l.cfg.Data.IsThreadSafe() && l.cfg.Resolver.IsThreadSafe()
}

// ctxCheckEvery is how many query results are resolved between
// cancellation checks.
const ctxCheckEvery = 64

// resolve queries one plan and runs the resolver over the results.
// Results inside an earlier plan's area were already resolved there.
func (l *Layer) resolve(ctx context.Context, areas []plan.Area, i, z int, out []tile.RenderInstruction) ([]tile.RenderInstruction, error) {
	var err error
	collections.With(l.queries, func(query []tile.QueryResult) []tile.QueryResult {
		query = l.cfg.Data.QuerySparse(areas[i], z, query)
		out, err = l.match(ctx, areas, i, z, query, out)
		return query
	})
	return out, err
}

func (l *Layer) match(ctx context.Context, areas []plan.Area, i, z int, query []tile.QueryResult, out []tile.RenderInstruction) ([]tile.RenderInstruction, error) {
	var picked matcher.Selections
	for j, r := range query {
		if j%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}
		}
		cell := r.Position.Floor()
		if slices.ContainsFunc(areas[:i], func(a plan.Area) bool { return a.Contains(cell) }) {
			continue
		}
		picked = picked[:0]
		l.cfg.Resolver.Match(r, z, &picked)
		for _, s := range picked {
			out = append(out, tile.RenderInstruction{
				Entity:      r.Entity,
				Tag:         s.Tag,
				Offset:      s.Position,
				MapPosition: r.Position,
			})
		}
	}
	return out, nil
}

// PrepareRenderLayer queries every plan, resolves sprites, projects them
// to every visible screen position and sorts the result. On
// cancellation the buffer is cleared and ctx.Err() returned.
func (l *Layer) PrepareRenderLayer(ctx context.Context, v view.Viewport, plans []plan.QueryPlan) ([]tile.ScreenRenderInstruction, error) {
	l.out = l.out[:0]
	areas := plan.Areas(plans)
	z := v.ZLayer()
	buffers := make([][]tile.RenderInstruction, len(plans))
	defer func() {
		for _, b := range buffers {
			l.resolved.Put(b)
		}
	}()

	var err error
	if l.cfg.Parallel && len(plans) > 1 && l.IsThreadSafe() {
		g, gctx := errgroup.WithContext(ctx)
		for i := range plans {
			g.Go(func() error {
				var err error
				buffers[i], err = l.resolve(gctx, areas, i, z, l.resolved.Get())
				return err
			})
		}
		err = g.Wait()
	} else {
		for i := range plans {
			if buffers[i], err = l.resolve(ctx, areas, i, z, l.resolved.Get()); err != nil {
				break
			}
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		l.log.WithError(err).Debug("prepare aborted")
		return nil, err
	}

	for _, b := range buffers {
		for _, ri := range b {
			pos := ri.MapPosition.Add(ri.Offset.Offset())
			l.screens = v.VisibleScreenPositions(pos, l.screens[:0])
			for _, sp := range l.screens {
				l.out = append(l.out, tile.ScreenRenderInstruction{RenderInstruction: ri, Screen: sp, Order: len(l.out)})
			}
		}
	}
	slices.SortFunc(l.out, l.cfg.Order.Compare)
	l.log.WithFields(logrus.Fields{"plans": len(plans), "instructions": len(l.out)}).Trace("prepared")
	return l.out, nil
}

// Render prepares the layer and hands the result to its renderer.
func (l *Layer) Render(ctx context.Context, v view.Viewport, plans []plan.QueryPlan) error {
	return Render(ctx, l, l.cfg.Renderer, v, plans)
}

// Render prepares any RenderLayer and passes the sorted batch to r.
// Nothing reaches r when preparation fails.
func Render(ctx context.Context, l RenderLayer, r tile.TileRenderer, v view.Viewport, plans []plan.QueryPlan) error {
	if r == nil {
		return fmt.Errorf("layer %q renderer: %w", l.Name(), ErrNilCollaborator)
	}
	batch, err := l.PrepareRenderLayer(ctx, v, plans)
	if err != nil {
		return err
	}
	return r.RenderBatch(ctx, v, batch)
}
