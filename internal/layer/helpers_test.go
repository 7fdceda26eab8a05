package layer

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"tileview/internal/matcher"
	"tileview/internal/nav"
	"tileview/internal/plan"
	"tileview/internal/tile"
	"tileview/internal/view"
)

// cellData holds tags at fixed cells.
type cellData struct {
	cells   map[nav.MapCoordinate]tile.GraphicTag
	unsafe  bool
	onQuery func()
}

func dataAt(cells map[nav.MapCoordinate]tile.GraphicTag) *cellData {
	return &cellData{cells: cells}
}

func (d *cellData) QuerySparse(area plan.Area, _ int, out []tile.QueryResult) []tile.QueryResult {
	if d.onQuery != nil {
		d.onQuery()
	}
	out = out[:0]
	for c := range area.Cells() {
		if tag, ok := d.cells[c]; ok {
			out = append(out, tile.QueryResult{Tag: tag, Entity: c, Position: c.Continuous()})
		}
	}
	return out
}

func (d *cellData) QueryPoint(c nav.MapCoordinate, _ int, out []tile.QueryResult) []tile.QueryResult {
	out = out[:0]
	if tag, ok := d.cells[c]; ok {
		out = append(out, tile.QueryResult{Tag: tag, Entity: c, Position: c.Continuous()})
	}
	return out
}

func (d *cellData) IsThreadSafe() bool { return !d.unsafe }

// positioned emits the tag at a fixed sprite position.
type positioned struct{ pos tile.SpritePosition }

func (p positioned) Match(in tile.QueryResult, _ int, out matcher.Collector) bool {
	out.Collect(tile.Sprite(string(in.Tag)), p.pos)
	return true
}

func (positioned) IsThreadSafe() bool { return true }

func newView(t *testing.T, focus nav.ContinuousMapCoordinate, topo nav.Topology) *view.View {
	t.Helper()
	v, err := view.New(view.Config{
		Bounds:   view.Rect{Width: 320, Height: 240},
		Tile:     view.Size{Width: 32, Height: 32},
		Focus:    focus,
		Topology: topo,
	})
	require.NoError(t, err)
	return v
}

func newLayer(t *testing.T, cfg Config) *Layer {
	t.Helper()
	if cfg.Resolver == nil {
		cfg.Resolver = positioned{pos: tile.Whole}
	}
	l, err := New(cfg)
	require.NoError(t, err)
	return l
}

// staticLayer returns a fixed, already sorted buffer.
type staticLayer struct {
	name   string
	order  SortOrder
	buf    []tile.ScreenRenderInstruction
	err    error
	unsafe bool

	running atomic.Int32
	peak    atomic.Int32
}

func (s *staticLayer) Name() string { return s.name }
func (s *staticLayer) SortOrder() SortOrder { return s.order }
func (s *staticLayer) IsThreadSafe() bool { return !s.unsafe }

func (s *staticLayer) PrepareRenderLayer(ctx context.Context, _ view.Viewport, _ []plan.QueryPlan) ([]tile.ScreenRenderInstruction, error) {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.buf, s.err
}

type recordingRenderer struct {
	batches [][]tile.ScreenRenderInstruction
}

func (r *recordingRenderer) RenderBatch(_ context.Context, _ view.Viewport, batch []tile.ScreenRenderInstruction) error {
	r.batches = append(r.batches, append([]tile.ScreenRenderInstruction(nil), batch...))
	return nil
}

func ins(x, y float64, order int, entity any) tile.ScreenRenderInstruction {
	return tile.ScreenRenderInstruction{
		RenderInstruction: tile.RenderInstruction{Entity: entity},
		Screen:            view.ScreenPosition{X: x, Y: y},
		Order:             order,
	}
}
