package layer

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tileview/internal/collections"
	"tileview/internal/plan"
	"tileview/internal/tile"
	"tileview/internal/view"
)

// CombinedConfig describes a stack of layers merged into one stream.
// At the same screen position earlier layers are emitted first, so later
// layers draw on top.
type CombinedConfig struct {
	Name     string
	Order    SortOrder
	Layers   []RenderLayer
	Renderer tile.TileRenderer
	Parallel bool
	// MaxParallel bounds concurrent sub-layer preparation; 0 means one
	// goroutine per layer.
	MaxParallel int
}

// CombinedLayer prepares its sub-layers and k-way merges their sorted
// buffers with a binary heap.
type CombinedLayer struct {
	cfg     CombinedConfig
	log     *logrus.Entry
	buffers [][]tile.ScreenRenderInstruction
	heap    *collections.BinaryHeap[cursor]
	out     []tile.ScreenRenderInstruction
}

// cursor is the head of one sub-layer buffer.
type cursor struct {
	layer int
	index int
}

func NewCombined(cfg CombinedConfig) (*CombinedLayer, error) {
	if len(cfg.Layers) == 0 {
		return nil, fmt.Errorf("combined layer %q has no layers: %w", cfg.Name, ErrNilCollaborator)
	}
	for i, l := range cfg.Layers {
		if l == nil {
			return nil, fmt.Errorf("combined layer %q layer %d: %w", cfg.Name, i, ErrNilCollaborator)
		}
		if l.SortOrder() != cfg.Order {
			return nil, fmt.Errorf("combined layer %q: layer %q sorts %s, want %s", cfg.Name, l.Name(), l.SortOrder(), cfg.Order)
		}
	}
	c := &CombinedLayer{
		cfg:     cfg,
		log:     logrus.WithField("layer", cfg.Name),
		buffers: make([][]tile.ScreenRenderInstruction, len(cfg.Layers)),
	}
	c.heap = collections.NewBinaryHeap(c.less, len(cfg.Layers))
	return c, nil
}

func (c *CombinedLayer) Name() string { return c.cfg.Name }
func (c *CombinedLayer) SortOrder() SortOrder { return c.cfg.Order }
func (c *CombinedLayer) Layers() []RenderLayer { return c.cfg.Layers }

func (c *CombinedLayer) IsThreadSafe() bool {
	for _, l := range c.cfg.Layers {
		if !l.IsThreadSafe() {
			return false
		}
	}
	return true
}

// less breaks screen ties by layer, so later layers paint over earlier
// ones. The heap holds one cursor per layer, so Order never decides.
func (c *CombinedLayer) less(a, b cursor) bool {
	if r := c.cfg.Order.CompareScreen(c.buffers[a.layer][a.index], c.buffers[b.layer][b.index]); r != 0 {
		return r < 0
	}
	return a.layer < b.layer
}

func (c *CombinedLayer) prepareLayers(ctx context.Context, v view.Viewport, plans []plan.QueryPlan) error {
	if c.cfg.Parallel && c.IsThreadSafe() {
		g, gctx := errgroup.WithContext(ctx)
		if c.cfg.MaxParallel > 0 {
			g.SetLimit(c.cfg.MaxParallel)
		}
		for i, l := range c.cfg.Layers {
			g.Go(func() error {
				buf, err := l.PrepareRenderLayer(gctx, v, plans)
				if err != nil {
					return fmt.Errorf("layer %q: %w", l.Name(), err)
				}
				c.buffers[i] = buf
				return nil
			})
		}
		return g.Wait()
	}
	if c.cfg.Parallel {
		c.log.Debug("sub-layers are not thread-safe, preparing sequentially")
	}
	for i, l := range c.cfg.Layers {
		buf, err := l.PrepareRenderLayer(ctx, v, plans)
		if err != nil {
			return fmt.Errorf("layer %q: %w", l.Name(), err)
		}
		c.buffers[i] = buf
	}
	return nil
}

// PrepareRenderLayer prepares every sub-layer and merges the results.
// Order is renumbered so the merged buffer can itself be merged.
func (c *CombinedLayer) PrepareRenderLayer(ctx context.Context, v view.Viewport, plans []plan.QueryPlan) ([]tile.ScreenRenderInstruction, error) {
	c.out = c.out[:0]
	clear(c.buffers)
	if err := c.prepareLayers(ctx, v, plans); err != nil {
		clear(c.buffers)
		c.log.WithError(err).Debug("prepare aborted")
		return nil, err
	}

	total := 0
	c.heap.Clear()
	for i, b := range c.buffers {
		total += len(b)
		if len(b) > 0 {
			c.heap.Add(cursor{layer: i})
		}
	}
	c.out = slices.Grow(c.out, total)
	for c.heap.Len() > 0 {
		head := c.heap.Remove()
		ins := c.buffers[head.layer][head.index]
		ins.Order = len(c.out)
		c.out = append(c.out, ins)
		if head.index+1 < len(c.buffers[head.layer]) {
			head.index++
			c.heap.Add(head)
		}
	}
	clear(c.buffers)

	if err := ctx.Err(); err != nil {
		c.out = c.out[:0]
		return nil, err
	}
	return c.out, nil
}

func (c *CombinedLayer) Render(ctx context.Context, v view.Viewport, plans []plan.QueryPlan) error {
	return Render(ctx, c, c.cfg.Renderer, v, plans)
}
