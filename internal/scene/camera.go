package scene

import (
	"context"
	"fmt"

	"tileview/internal/render"
	"tileview/internal/tile"
	"tileview/internal/view"
)

// Camera renders one viewer. It rebuilds its view and layer stack when
// the viewer changes map. A Camera belongs to one session.
type Camera struct {
	builder  *Builder
	world    *World
	renderer tile.TileRenderer

	mapName  string
	view     *view.View
	pipeline *render.Pipeline
}

func (b *Builder) NewCamera(world *World, r tile.TileRenderer) *Camera {
	return &Camera{builder: b, world: world, renderer: r}
}

// View returns the current view, nil before the first frame.
func (c *Camera) View() *view.View { return c.view }

func (c *Camera) MapName() string { return c.mapName }

func (c *Camera) switchMap(v ViewerSnapshot, bounds view.Rect) error {
	m := c.world.GetMap(v.MapName)
	if m == nil {
		return fmt.Errorf("map %q: %w", v.MapName, ErrUnknownMap)
	}
	root, err := c.builder.Root(m)
	if err != nil {
		return err
	}
	vw, err := c.builder.View(m, bounds, v.Focus)
	if err != nil {
		return fmt.Errorf("map %q view: %w", m.Name, err)
	}
	p, err := render.NewPipeline(c.builder.Planner(m), root, c.renderer)
	if err != nil {
		return err
	}
	c.mapName, c.view, c.pipeline = m.Name, vw, p
	return nil
}

// Render draws the viewer's surroundings into bounds.
func (c *Camera) Render(ctx context.Context, v ViewerSnapshot, bounds view.Rect) error {
	if c.pipeline == nil || v.MapName != c.mapName {
		if err := c.switchMap(v, bounds); err != nil {
			return err
		}
	}
	c.view.SetBounds(bounds)
	c.view.SetFocus(centre(v.Focus))
	return c.pipeline.RenderFrame(ctx, c.view)
}
