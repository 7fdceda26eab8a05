// Package stream serves map views over HTTP. A websocket client picks a
// map and a focus and receives every frame as a JSON instruction batch.
package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tileview/internal/nav"
	"tileview/internal/scene"
	"tileview/internal/view"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	maxExtent     = 1024
)

// Handler renders map views for websocket clients. Views are static
// cameras; they do not join the viewer loop.
type Handler struct {
	world    *scene.World
	builder  *scene.Builder
	interval time.Duration
	upgrader websocket.Upgrader
}

func NewHandler(world *scene.World, b *scene.Builder, interval time.Duration) *Handler {
	return &Handler{
		world:    world,
		builder:  b,
		interval: interval,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 16 * 1024},
	}
}

type streamQuery struct {
	Map    string `form:"map"`
	X      int    `form:"x"`
	Y      int    `form:"y"`
	Width  int    `form:"w"`
	Height int    `form:"h"`
}

// Move is a client request to refocus the view. An empty Map keeps the
// current one.
type Move struct {
	Map string `json:"map,omitempty"`
	X   int    `json:"x"`
	Y   int    `json:"y"`
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "maps": h.world.MapNames()})
}

// Stream upgrades to a websocket and sends a frame every interval until
// the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	var q streamQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Map == "" {
		q.Map = h.world.DefaultMap
	}
	m := h.world.GetMap(q.Map)
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown map " + q.Map})
		return
	}
	if !m.Contains(q.X, q.Y) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "focus outside map"})
		return
	}
	if q.Width == 0 {
		q.Width = defaultWidth
	}
	if q.Height == 0 {
		q.Height = defaultHeight
	}
	if q.Width < 0 || q.Height < 0 || q.Width > maxExtent || q.Height > maxExtent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad view size"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket upgrade")
		return
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{"remote": c.ClientIP(), "map": q.Map})
	log.Info("stream opened")
	defer log.Info("stream closed")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	moves := make(chan Move, 8)
	go readMoves(ctx, cancel, conn, moves)

	renderer := NewRenderer(conn)
	camera := h.builder.NewCamera(h.world, renderer)
	snap := scene.ViewerSnapshot{MapName: q.Map, Focus: nav.At(q.X, q.Y)}
	bounds := view.Rect{Width: q.Width, Height: q.Height}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		if err := camera.Render(ctx, snap, bounds); err != nil {
			if ctx.Err() == nil {
				log.WithError(err).Warn("stream render")
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case mv := <-moves:
			snap = h.apply(snap, mv)
		case <-ticker.C:
		}
	}
}

// apply moves the camera, ignoring targets outside every known map.
func (h *Handler) apply(snap scene.ViewerSnapshot, mv Move) scene.ViewerSnapshot {
	name := snap.MapName
	if mv.Map != "" {
		name = mv.Map
	}
	m := h.world.GetMap(name)
	if m == nil || !m.Contains(mv.X, mv.Y) {
		return snap
	}
	snap.MapName, snap.Focus = name, nav.At(mv.X, mv.Y)
	return snap
}

// readMoves forwards client messages until the connection fails, then
// cancels the stream.
func readMoves(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out chan<- Move) {
	defer cancel()
	for {
		var mv Move
		if err := conn.ReadJSON(&mv); err != nil {
			return
		}
		select {
		case out <- mv:
		case <-ctx.Done():
			return
		}
	}
}
