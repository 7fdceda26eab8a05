package config

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tileview/internal/layer"
	"tileview/internal/matcher"
	"tileview/internal/render"
	"tileview/internal/tile"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, layer.TopDownLeftRight, cfg.Render.Order())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "server.yaml", `
ssh:
  addr: ":2022"
http:
  addr: ":8080"
maps_dir: worlds
render:
  tile_width: 2
  tile_height: 1
  sort_order: bottom-up-left-right
cache:
  plan_ttl: 5s
`)
	t.Setenv("TILEVIEW_LOG_LEVEL", "debug")
	t.Setenv("TILEVIEW_RENDER_OVERDRAW", "6")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":2022", cfg.SSH.Addr)
	assert.Equal(t, ".ssh/host_key", cfg.SSH.HostKey, "defaults fill the gaps")
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "worlds", cfg.MapsDir)
	assert.Equal(t, 2, cfg.Render.TileWidth)
	assert.Equal(t, 6, cfg.Render.Overdraw)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Cache.PlanTTL)
	assert.Equal(t, layer.BottomUpLeftRight, cfg.Render.Order())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "TILEVIEW_DEFAULT_MAP=harbor\n")
	t.Cleanup(func() { os.Unsetenv("TILEVIEW_DEFAULT_MAP") })

	cfg, err := Load("none.yaml")
	require.NoError(t, err)
	assert.Equal(t, "harbor", cfg.DefaultMap)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Server)
	}{
		{"tile width", func(s *Server) { s.Render.TileWidth = 0 }},
		{"overdraw", func(s *Server) { s.Render.Overdraw = -1 }},
		{"tick rate", func(s *Server) { s.Render.TickRate = 0 }},
		{"sort order", func(s *Server) { s.Render.SortOrder = "diagonal" }},
		{"log level", func(s *Server) { s.Log.Level = "loud" }},
		{"cache", func(s *Server) { s.Cache.MaxEntries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidConfig)
		})
	}
	assert.NoError(t, Default().Validate())
}

const tilesetYAML = `
width: 16
classes: [land, water]
tags:
  grass: {classes: [land]}
  water:
    classes: [water]
    flags: [blend]
    properties: {blend_priority: "2"}
glyphs:
  grass: {char: ".", fg: green}
  wall: {fg: gray, box: true}
layers:
  - name: ground
    source: ground
    matcher:
      kind: list
      children:
        - {kind: basic}
        - {kind: blend}
  - name: objects
    source: objects
    matcher: {kind: basic}
`

func TestParseTileset(t *testing.T) {
	ts, err := ParseTileset([]byte(tilesetYAML))
	require.NoError(t, err)
	require.Len(t, ts.Layers, 2)
	assert.Equal(t, "list", ts.Layers[0].Matcher.Kind)
	assert.Equal(t, []matcher.Model{{Kind: "basic"}, {Kind: "blend"}}, ts.Layers[0].Matcher.Children)
	assert.Equal(t, layer.TopDownLeftRight, ts.Order())

	meta, err := ts.Metadata()
	require.NoError(t, err)
	assert.Equal(t, 16, meta.Registry().Width())
	land, ok := meta.Registry().Lookup("land")
	require.True(t, ok)
	assert.Equal(t, land, meta.Classification("grass"))
	assert.True(t, meta.HasFlag(tile.GraphicTag("water"), matcher.BlendFlag))
	p, _ := meta.Property("water", matcher.BlendPriorityProperty)
	assert.Equal(t, "2", p)
	assert.True(t, meta.Frozen(), "tileset metadata is read-only once built")

	atlas, err := ts.Atlas()
	require.NoError(t, err)
	assert.Equal(t, '.', atlas.Lookup(tile.Sprite("grass"), nil).Ch)
}

func TestParseTilesetErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no layers", "width: 16\n"},
		{"unknown field", "layers: [{name: a, source: ground, matcher: {kind: basic}}]\ncolour: red\n"},
		{"missing source", "layers: [{name: a, matcher: {kind: basic}}]\n"},
		{"missing kind", "layers: [{name: a, source: ground, matcher: {}}]\n"},
		{"duplicate", "layers: [{name: a, source: ground, matcher: {kind: basic}}, {name: a, source: objects, matcher: {kind: basic}}]\n"},
		{"mixed sort", "layers: [{name: a, source: ground, matcher: {kind: basic}}, {name: b, source: objects, sort: bottom-up-left-right, matcher: {kind: basic}}]\n"},
		{"bad sort", "layers: [{name: a, source: ground, sort: sideways, matcher: {kind: basic}}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTileset([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadTileset(t *testing.T) {
	ts, err := LoadTileset("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTileset(), ts)

	path := writeFile(t, t.TempDir(), "tiles.yaml", tilesetYAML)
	ts, err = LoadTileset(path)
	require.NoError(t, err)
	assert.Len(t, ts.Glyphs, 2)

	_, err = LoadTileset(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestTilesetAtlasImages(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for _, p := range []image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		img.Set(p.X, p.Y, color.RGBA{0, 0, 200, 255})
	}
	f, err := os.Create(filepath.Join(dir, "water.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	f, err = os.Create(filepath.Join(dir, "grass.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	ts, err := ParseTileset([]byte(tilesetYAML))
	require.NoError(t, err)
	ts.Images = dir
	atlas, err := ts.Atlas()
	require.NoError(t, err)

	water := atlas.Lookup(tile.Sprite("water"), nil)
	assert.Equal(t, '▀', water.Ch)
	assert.Equal(t, render.RGB{R: 0, G: 0, B: 200}, water.Fg)
	assert.Equal(t, '.', atlas.Lookup(tile.Sprite("grass"), nil).Ch, "specs win over images")

	ts.Images = filepath.Join(dir, "missing")
	_, err = ts.Atlas()
	assert.NoError(t, err, "an empty glob is not an error")
}
