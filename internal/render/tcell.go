package render

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"tileview/internal/tile"
	"tileview/internal/view"
)

// TcellRenderer draws frames onto a tcell screen. The screen does its own
// diffing, so each frame is painted into a scratch canvas and copied.
type TcellRenderer struct {
	screen     tcell.Screen
	atlas      *Atlas
	canvas     *Canvas
	background Cell
}

func NewTcellRenderer(screen tcell.Screen, atlas *Atlas) *TcellRenderer {
	return &TcellRenderer{
		screen:     screen,
		atlas:      atlas,
		background: Cell{Ch: ' ', Bg: RGB{10, 10, 15}},
	}
}

// MapBounds is the full screen.
func (r *TcellRenderer) MapBounds() view.Rect {
	w, h := r.screen.Size()
	return view.Rect{Width: w, Height: h}
}

func (r *TcellRenderer) RenderBatch(ctx context.Context, v view.Viewport, batch []tile.ScreenRenderInstruction) error {
	w, h := r.screen.Size()
	if r.canvas == nil || r.canvas.Width() != w || r.canvas.Height() != h {
		r.canvas = NewCanvas(w, h, r.background)
	} else {
		r.canvas.Fill(r.background)
	}
	paint(ctx, r.canvas, r.atlas, v, batch)
	if err := ctx.Err(); err != nil {
		return err
	}

	for y := range h {
		for x := range w {
			c := r.canvas.At(x, y)
			r.screen.SetContent(x, y, c.Ch, nil, StyleOf(c))
		}
	}
	r.screen.Show()
	return nil
}

// StyleOf converts a cell's colors to a tcell style.
func StyleOf(c Cell) tcell.Style {
	return tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(c.Fg.R), int32(c.Fg.G), int32(c.Fg.B))).
		Background(tcell.NewRGBColor(int32(c.Bg.R), int32(c.Bg.G), int32(c.Bg.B))).
		Bold(c.Bold)
}
