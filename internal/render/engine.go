package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"tileview/internal/nav"
	"tileview/internal/tile"
	"tileview/internal/view"
)

// HUDRows is the number of terminal rows below the map.
const HUDRows = 3

// checkEvery is how many instructions are stamped between context checks.
const checkEvery = 256

// Status is what the HUD shows about the viewer.
type Status struct {
	Viewer string
	Map    string
	Online int
	Focus  nav.ContinuousMapCoordinate
	Notice string
}

// Engine is a per-session double-buffer diff renderer. Each frame is
// painted into a canvas and only the cells that changed since the last
// frame are written out. An Engine is driven by one goroutine.
type Engine struct {
	out        io.Writer
	atlas      *Atlas
	width      int
	height     int
	current    *Canvas
	next       *Canvas
	firstFrame bool
	background Cell
	status     Status
	frames     uint64
}

// NewEngine creates a renderer for the given terminal dimensions.
func NewEngine(out io.Writer, atlas *Atlas, width, height int) *Engine {
	e := &Engine{
		out:        out,
		atlas:      atlas,
		background: Cell{Ch: ' ', Bg: RGB{10, 10, 15}},
	}
	e.Resize(width, height)
	return e
}

// Resize adjusts the renderer for a new terminal size. The next frame is
// a full repaint.
func (e *Engine) Resize(width, height int) {
	e.width = width
	e.height = height
	e.current = NewCanvas(width, height, sentinel)
	e.next = NewCanvas(width, height, Cell{})
	e.firstFrame = true
}

func (e *Engine) Size() (int, int) { return e.width, e.height }

// MapBounds is the part of the terminal the map is drawn in.
func (e *Engine) MapBounds() view.Rect {
	return view.Rect{Width: e.width, Height: max(e.height-HUDRows, 0)}
}

func (e *Engine) SetStatus(s Status) { e.status = s }

// Frame returns the last frame written.
func (e *Engine) Frame() *Canvas { return e.current }

func (e *Engine) Frames() uint64 { return e.frames }

// RenderBatch paints batch in order, so later instructions cover earlier
// ones, then writes the difference to the previous frame.
func (e *Engine) RenderBatch(ctx context.Context, v view.Viewport, batch []tile.ScreenRenderInstruction) error {
	e.next.Fill(e.background)
	paint(ctx, e.next, e.atlas, v, batch)
	if err := ctx.Err(); err != nil {
		return err
	}
	e.drawHUD()

	var sb strings.Builder
	sb.Grow(16384)
	e.next.Diff(&sb, e.current, e.firstFrame)

	// Swap buffers
	e.current, e.next = e.next, e.current
	e.firstFrame = false
	e.frames++

	if sb.Len() == 0 {
		return nil
	}
	if _, err := io.WriteString(e.out, sb.String()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// paint stamps every instruction into c. It stops early when ctx is done.
func paint(ctx context.Context, c *Canvas, atlas *Atlas, v view.Viewport, batch []tile.ScreenRenderInstruction) {
	ts := v.TileSize()
	for i, ins := range batch {
		if i%checkEvery == 0 && ctx.Err() != nil {
			return
		}
		sx, sy := ins.Offset.Scale()
		g := atlas.Lookup(ins.Tag, ins.Entity)
		c.StampAt(ins.Screen.X, ins.Screen.Y, float64(ts.Width)*sx, float64(ts.Height)*sy, g)
	}
}

// --- HUD ---

func (e *Engine) drawHUD() {
	hudY := e.height - HUDRows
	if hudY < 0 {
		return
	}
	bg := RGB{15, 18, 30}

	// Row 0: separator, thin gradient line
	for x := range e.width {
		t := uint8(60 - x*40/max(e.width, 1))
		e.next.Set(x, hudY, Cell{Ch: '━', Fg: RGB{40 + t, 70 + t, 90 + t}, Bg: bg})
	}
	e.next.FillRows(hudY+1, e.height, Cell{Ch: ' ', Bg: bg})

	sep := RGB{60, 65, 85}
	text := RGB{180, 180, 195}
	s := e.status

	// Row 1: viewer, map, online count, focus
	row1 := hudY + 1
	col := e.next.WriteText(row1, 1, e.width, s.Viewer, RGB{255, 220, 100}, bg, true)
	col = e.next.WriteText(row1, col, e.width, "  │  ", sep, bg, false)
	col = e.next.WriteText(row1, col, e.width, s.Map, text, bg, false)
	col = e.next.WriteText(row1, col, e.width, "  │  ", sep, bg, false)
	col = e.next.WriteText(row1, col, e.width, fmt.Sprintf("%d Online", s.Online), text, bg, false)
	col = e.next.WriteText(row1, col, e.width, "  │  ", sep, bg, false)
	e.next.WriteText(row1, col, e.width, fmt.Sprintf("%.0f,%.0f", s.Focus.X, s.Focus.Y), text, bg, false)

	// Row 2: controls or the current notice
	row2 := hudY + 2
	if s.Notice != "" {
		e.next.WriteText(row2, 1, e.width, s.Notice, RGB{100, 220, 220}, bg, false)
		return
	}
	e.next.WriteText(row2, 1, e.width, "←↑↓→/WASD Move  │  Q Quit", RGB{130, 130, 145}, bg, false)
}
