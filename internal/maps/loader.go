package maps

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"tileview/internal/nav"
	"tileview/internal/tile"
)

// ErrInvalidMap is returned for map files that fail validation.
var ErrInvalidMap = errors.New("maps: invalid map")

// GroundLayer is the name of the mandatory base tile layer.
const GroundLayer = "ground"

// colorNames maps color names from JSON to ANSI codes.
var colorNames = map[string]int{
	"black":          30,
	"red":            31,
	"green":          32,
	"yellow":         33,
	"blue":           34,
	"magenta":        35,
	"cyan":           36,
	"white":          37,
	"gray":           90,
	"grey":           90,
	"bright_red":     91,
	"bright_green":   92,
	"bright_yellow":  93,
	"bright_blue":    94,
	"bright_magenta": 95,
	"bright_cyan":    96,
	"bright_white":   97,
}

// ResolveColor returns the ANSI foreground code for a color name, white
// when the name is unknown.
func ResolveColor(name string) int {
	if code, ok := colorNames[name]; ok {
		return code
	}
	return 37
}

// ColorName is the inverse of ResolveColor. Codes with two names get the
// first in sort order.
func ColorName(code int) string {
	best := ""
	for name, c := range colorNames {
		if c == code && (best == "" || name < best) {
			best = name
		}
	}
	if best == "" {
		return "white"
	}
	return best
}

// TileDef defines the visual and gameplay properties of a tile type.
// Name doubles as the graphic tag that matchers see.
type TileDef struct {
	Char     rune
	Fg       int
	Bg       int
	Walkable bool
	Name     string
}

// Tag returns the graphic tag for the tile.
func (d TileDef) Tag() tile.GraphicTag { return tile.GraphicTag(d.Name) }

// Portal defines a teleport point linking two maps.
type Portal struct {
	X, Y             int
	TargetMap        string
	TargetX, TargetY int
}

// Spawn defines the spawn point coordinates.
type Spawn struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Wrap selects which axes wrap around. Axes that do not wrap are hard
// limits at the map edge.
type Wrap struct {
	X bool `json:"x"`
	Y bool `json:"y"`
}

// Map represents a loaded tile map.
type Map struct {
	Name     string
	Width    int
	Height   int
	SpawnX   int
	SpawnY   int
	Grid     nav.GridType
	Rotation int
	Wrap     Wrap
	Tiles    [][]int            // [y][x] legend indices of the ground layer
	Overlays map[string][][]int // named overlay layers, -1 is empty
	Legend   []TileDef          // index → tile definition
	Portals  []Portal
}

// jsonMap is the on-disk JSON format.
type jsonMap struct {
	Name     string              `json:"name"`
	Width    int                 `json:"width"`
	Height   int                 `json:"height"`
	Spawn    Spawn               `json:"spawn"`
	Grid     string              `json:"grid,omitempty"`
	Rotation int                 `json:"rotation,omitempty"`
	Wrap     Wrap                `json:"wrap"`
	Tiles    [][]int             `json:"tiles"`
	Layers   map[string][][]int  `json:"layers,omitempty"`
	Legend   map[string]jsonTile `json:"legend"`
	Portals  []jsonPortal        `json:"portals,omitempty"`
}

type jsonPortal struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	TargetMap string `json:"target_map"`
	TargetX   int    `json:"target_x"`
	TargetY   int    `json:"target_y"`
}

type jsonTile struct {
	Char     string `json:"char"`
	Fg       string `json:"fg"`
	Bg       string `json:"bg,omitempty"`
	Walkable bool   `json:"walkable"`
	Name     string `json:"name"`
}

// LoadMap reads a JSON map file from disk.
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map file: %w", err)
	}
	return ParseMap(data)
}

// ParseMap decodes and validates a JSON map.
func ParseMap(data []byte) (*Map, error) {
	var jm jsonMap
	if err := json.Unmarshal(data, &jm); err != nil {
		return nil, fmt.Errorf("parse map JSON: %w", err)
	}

	legend, err := buildLegend(jm.Legend)
	if err != nil {
		return nil, err
	}

	grid := nav.Grid
	if jm.Grid != "" {
		if grid, err = nav.ParseGridType(jm.Grid); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMap, err)
		}
	}

	m := &Map{
		Name:     jm.Name,
		Width:    jm.Width,
		Height:   jm.Height,
		SpawnX:   jm.Spawn.X,
		SpawnY:   jm.Spawn.Y,
		Grid:     grid,
		Rotation: jm.Rotation,
		Wrap:     jm.Wrap,
		Tiles:    jm.Tiles,
		Overlays: jm.Layers,
		Legend:   legend,
		Portals:  make([]Portal, len(jm.Portals)),
	}
	for i, jp := range jm.Portals {
		m.Portals[i] = Portal{
			X: jp.X, Y: jp.Y,
			TargetMap: jp.TargetMap,
			TargetX: jp.TargetX, TargetY: jp.TargetY,
		}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode writes m in the JSON format ParseMap reads.
func (m *Map) Encode() ([]byte, error) {
	jm := jsonMap{
		Name:     m.Name,
		Width:    m.Width,
		Height:   m.Height,
		Spawn:    Spawn{X: m.SpawnX, Y: m.SpawnY},
		Rotation: m.Rotation,
		Wrap:     m.Wrap,
		Tiles:    m.Tiles,
		Layers:   m.Overlays,
		Legend:   make(map[string]jsonTile, len(m.Legend)),
	}
	if m.Grid != nav.Grid {
		jm.Grid = m.Grid.String()
	}
	for i, d := range m.Legend {
		jt := jsonTile{Char: string(d.Char), Fg: ColorName(d.Fg), Walkable: d.Walkable, Name: d.Name}
		if d.Bg != 0 {
			jt.Bg = ColorName(d.Bg - 10)
		}
		jm.Legend[strconv.Itoa(i)] = jt
	}
	for _, p := range m.Portals {
		jm.Portals = append(jm.Portals, jsonPortal{
			X: p.X, Y: p.Y,
			TargetMap: p.TargetMap,
			TargetX: p.TargetX, TargetY: p.TargetY,
		})
	}
	return json.MarshalIndent(jm, "", "  ")
}

func buildLegend(in map[string]jsonTile) ([]TileDef, error) {
	maxIdx := -1
	for k := range in {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("legend key %q: %w", k, ErrInvalidMap)
		}
		maxIdx = max(maxIdx, idx)
	}

	legend := make([]TileDef, maxIdx+1)
	for k, jt := range in {
		idx, _ := strconv.Atoi(k)
		ch := '?'
		if r := []rune(jt.Char); len(r) > 0 {
			ch = r[0]
		}
		bg := 0
		if jt.Bg != "" {
			bg = ResolveColor(jt.Bg) + 10
		}
		legend[idx] = TileDef{
			Char:     ch,
			Fg:       ResolveColor(jt.Fg),
			Bg:       bg,
			Walkable: jt.Walkable,
			Name:     jt.Name,
		}
	}
	return legend, nil
}

func (m *Map) validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("map %q size %dx%d: %w", m.Name, m.Width, m.Height, ErrInvalidMap)
	}
	if err := checkGrid(m.Tiles, m.Width, m.Height, len(m.Legend), false); err != nil {
		return fmt.Errorf("map %q %s: %w", m.Name, GroundLayer, err)
	}
	for name, g := range m.Overlays {
		if name == GroundLayer {
			return fmt.Errorf("map %q overlay may not be named %q: %w", m.Name, GroundLayer, ErrInvalidMap)
		}
		if err := checkGrid(g, m.Width, m.Height, len(m.Legend), true); err != nil {
			return fmt.Errorf("map %q overlay %s: %w", m.Name, name, err)
		}
	}
	if m.SpawnX < 0 || m.SpawnX >= m.Width || m.SpawnY < 0 || m.SpawnY >= m.Height {
		return fmt.Errorf("map %q spawn (%d,%d) outside map: %w", m.Name, m.SpawnX, m.SpawnY, ErrInvalidMap)
	}
	if _, err := m.Topology().MapNavigator(); err != nil {
		return fmt.Errorf("map %q topology: %w: %w", m.Name, ErrInvalidMap, err)
	}
	return nil
}

func checkGrid(g [][]int, w, h, legend int, sparse bool) error {
	if len(g) != h {
		return fmt.Errorf("tile rows %d != declared height %d: %w", len(g), h, ErrInvalidMap)
	}
	for y, row := range g {
		if len(row) != w {
			return fmt.Errorf("row %d has %d tiles, expected %d: %w", y, len(row), w, ErrInvalidMap)
		}
		for x, idx := range row {
			if idx == -1 && sparse {
				continue
			}
			if idx < 0 || idx >= legend {
				return fmt.Errorf("tile (%d,%d) index %d not in legend: %w", x, y, idx, ErrInvalidMap)
			}
		}
	}
	return nil
}

// Topology describes how the map wraps. Non-wrapping axes are limited to
// the map bounds.
func (m *Map) Topology() nav.Topology {
	border := func(wrap bool, size int) nav.Border {
		if wrap {
			return nav.Border{Mode: nav.Wrap, Size: size}
		}
		return nav.Border{Mode: nav.Limit, Size: size}
	}
	return nav.Topology{
		GridType: m.Grid,
		Rotation: m.Rotation,
		X:        border(m.Wrap.X, m.Width),
		Y:        border(m.Wrap.Y, m.Height),
	}
}

// LayerNames returns the ground layer followed by the overlays in name
// order.
func (m *Map) LayerNames() []string {
	names := make([]string, 0, len(m.Overlays)+1)
	for name := range m.Overlays {
		names = append(names, name)
	}
	slices.Sort(names)
	return append([]string{GroundLayer}, names...)
}

func (m *Map) layer(name string) ([][]int, bool) {
	if name == GroundLayer {
		return m.Tiles, true
	}
	g, ok := m.Overlays[name]
	return g, ok
}

// Contains reports whether (x, y) is inside the map.
func (m *Map) Contains(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// TileAt returns the tile definition at the given coordinates.
// Returns a default non-walkable tile for out-of-bounds coordinates.
func (m *Map) TileAt(x, y int) TileDef {
	if !m.Contains(x, y) {
		return TileDef{Char: ' ', Fg: 37, Walkable: false, Name: "void"}
	}
	idx := m.Tiles[y][x]
	if idx < 0 || idx >= len(m.Legend) {
		return TileDef{Char: '?', Fg: 37, Walkable: false, Name: "unknown"}
	}
	return m.Legend[idx]
}

// IsWalkable checks if the tile at x,y can be walked on. Overlay tiles
// that are not walkable block movement too.
func (m *Map) IsWalkable(x, y int) bool {
	if !m.TileAt(x, y).Walkable {
		return false
	}
	for _, g := range m.Overlays {
		if idx := g[y][x]; idx >= 0 && !m.Legend[idx].Walkable {
			return false
		}
	}
	return true
}

// PortalAt returns the portal at the given coordinates, or nil if none.
func (m *Map) PortalAt(x, y int) *Portal {
	for i := range m.Portals {
		if m.Portals[i].X == x && m.Portals[i].Y == y {
			return &m.Portals[i]
		}
	}
	return nil
}

// LoadMaps scans a directory for *.json files, loads each as a Map,
// and returns them indexed by Name. Validates portal target_map references.
func LoadMaps(dir string) (map[string]*Map, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read maps directory: %w", err)
	}

	allMaps := make(map[string]*Map)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		m, err := LoadMap(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		if _, exists := allMaps[m.Name]; exists {
			return nil, fmt.Errorf("duplicate map name %q in %s: %w", m.Name, entry.Name(), ErrInvalidMap)
		}
		allMaps[m.Name] = m
	}

	if err := ValidatePortals(allMaps); err != nil {
		return nil, err
	}
	return allMaps, nil
}

// ValidatePortals checks that every portal leads to a walkable cell on a
// known map.
func ValidatePortals(allMaps map[string]*Map) error {
	for name, m := range allMaps {
		for _, p := range m.Portals {
			target, ok := allMaps[p.TargetMap]
			if !ok {
				return fmt.Errorf("map %q portal at (%d,%d) references unknown map %q: %w", name, p.X, p.Y, p.TargetMap, ErrInvalidMap)
			}
			if !target.Contains(p.TargetX, p.TargetY) {
				return fmt.Errorf("map %q portal at (%d,%d) lands outside %q: %w", name, p.X, p.Y, p.TargetMap, ErrInvalidMap)
			}
		}
	}
	return nil
}

// DefaultMap returns a simple fallback map if no JSON file is available.
// It wraps horizontally so the camera can circle it.
func DefaultMap() *Map {
	w, h := 60, 30
	tiles := make([][]int, h)
	for y := range h {
		tiles[y] = make([]int, w)
		for x := range w {
			switch {
			case y == 0 || y == h-1:
				tiles[y][x] = 1 // wall
			case (x/8+y/6)%5 == 1:
				tiles[y][x] = 2 // water
			default:
				tiles[y][x] = 0 // grass
			}
		}
	}

	return &Map{
		Name:   "Default",
		Width:  w,
		Height: h,
		SpawnX: w / 2,
		SpawnY: h / 2,
		Wrap:   Wrap{X: true},
		Tiles:  tiles,
		Legend: []TileDef{
			{Char: '.', Fg: 32, Walkable: true, Name: "grass"},
			{Char: '#', Fg: 90, Walkable: false, Name: "wall"},
			{Char: '~', Fg: 34, Bg: 44, Walkable: false, Name: "water"},
		},
	}
}
