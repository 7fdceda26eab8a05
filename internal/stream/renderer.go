package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"tileview/internal/tile"
	"tileview/internal/view"
)

const writeWait = 5 * time.Second

// Instruction is one sprite placement as sent to the browser.
type Instruction struct {
	Tag      string  `json:"tag"`
	Position string  `json:"position"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	MapX     float64 `json:"map_x"`
	MapY     float64 `json:"map_y"`
}

// Batch is one frame. Instructions are in draw order.
type Batch struct {
	Frame        uint64        `json:"frame"`
	FocusX       float64       `json:"focus_x"`
	FocusY       float64       `json:"focus_y"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	TileWidth    int           `json:"tile_width"`
	TileHeight   int           `json:"tile_height"`
	Instructions []Instruction `json:"instructions"`
}

// Renderer is a TileRenderer that writes every frame to a websocket as
// a JSON Batch. Only one goroutine may render at a time.
type Renderer struct {
	conn   *websocket.Conn
	frames uint64
	batch  Batch
}

func NewRenderer(conn *websocket.Conn) *Renderer {
	return &Renderer{conn: conn}
}

func (r *Renderer) Frames() uint64 { return r.frames }

func (r *Renderer) RenderBatch(ctx context.Context, v view.Viewport, batch []tile.ScreenRenderInstruction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bounds, ts, focus := v.PixelBounds(), v.TileSize(), v.Focus()
	r.batch = Batch{
		Frame:        r.frames + 1,
		FocusX:       focus.X,
		FocusY:       focus.Y,
		Width:        bounds.Width,
		Height:       bounds.Height,
		TileWidth:    ts.Width,
		TileHeight:   ts.Height,
		Instructions: r.batch.Instructions[:0],
	}
	for _, ins := range batch {
		r.batch.Instructions = append(r.batch.Instructions, Instruction{
			Tag:      ins.Tag.String(),
			Position: ins.Offset.String(),
			X:        ins.Screen.X,
			Y:        ins.Screen.Y,
			MapX:     ins.MapPosition.X,
			MapY:     ins.MapPosition.Y,
		})
	}

	if err := r.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := r.conn.WriteJSON(&r.batch); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	r.frames++
	return nil
}
