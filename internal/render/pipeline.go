package render

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tileview/internal/layer"
	"tileview/internal/plan"
	"tileview/internal/tile"
	"tileview/internal/view"
)

// Pipeline plans a viewport, prepares the root layer and hands the
// sorted instructions to a renderer.
type Pipeline struct {
	planner  plan.Planner
	root     layer.RenderLayer
	renderer tile.TileRenderer
}

func NewPipeline(p plan.Planner, root layer.RenderLayer, r tile.TileRenderer) (*Pipeline, error) {
	if p == nil || root == nil || r == nil {
		return nil, fmt.Errorf("pipeline: %w", layer.ErrNilCollaborator)
	}
	return &Pipeline{planner: p, root: root, renderer: r}, nil
}

// RenderFrame draws one frame of v.
func (p *Pipeline) RenderFrame(ctx context.Context, v view.Viewport) error {
	start := time.Now()
	plans := p.planner.Plan(v)
	if err := layer.Render(ctx, p.root, p.renderer, v, plans); err != nil {
		return fmt.Errorf("render %s: %w", p.root.Name(), err)
	}
	logrus.WithFields(logrus.Fields{
		"layer":   p.root.Name(),
		"plans":   len(plans),
		"elapsed": time.Since(start),
	}).Trace("frame")
	return nil
}
