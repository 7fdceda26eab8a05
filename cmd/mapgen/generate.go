package main

import (
	"errors"
	"fmt"
	"math/rand"

	"tileview/internal/maps"
	"tileview/internal/nav"
)

// Legend indices.
const (
	tGrass = iota
	tWater
	tShallowWater
	tSand
	tTallGrass
	tRock
	tWall
	tPath
	tBridge
	tTree
	tFlowers
)

var legend = []maps.TileDef{
	tGrass:        {Char: '.', Fg: 32, Walkable: true, Name: "grass"},
	tWater:        {Char: '~', Fg: 34, Bg: 44, Name: "water"},
	tShallowWater: {Char: '~', Fg: 36, Walkable: true, Name: "shallow_water"},
	tSand:         {Char: ':', Fg: 33, Walkable: true, Name: "sand"},
	tTallGrass:    {Char: ';', Fg: 92, Walkable: true, Name: "tall_grass"},
	tRock:         {Char: '▒', Fg: 90, Name: "rock"},
	tWall:         {Char: '#', Fg: 90, Name: "wall"},
	tPath:         {Char: '.', Fg: 33, Walkable: true, Name: "path"},
	tBridge:       {Char: '=', Fg: 33, Walkable: true, Name: "bridge"},
	tTree:         {Char: 'T', Fg: 32, Name: "tree"},
	tFlowers:      {Char: '*', Fg: 91, Walkable: true, Name: "flowers"},
}

const (
	decorLayer    = "decor"
	fillThreshold = 15 // unreachable pockets smaller than this are planted over
)

var errNoSpawn = errors.New("no walkable tile for a spawn point")

type genConfig struct {
	Name  string
	W, H  int
	Seed  int64
	WrapX bool
	WrapY bool
}

// generator holds a map under construction. The map is valid for
// navigation from the start, so every pass can use its topology.
type generator struct {
	m     *maps.Map
	nav   nav.Navigator
	rng   *rand.Rand
	decor [][]int
}

func generate(cfg genConfig) (*maps.Map, error) {
	m := &maps.Map{
		Name:     cfg.Name,
		Width:    cfg.W,
		Height:   cfg.H,
		Wrap:     maps.Wrap{X: cfg.WrapX, Y: cfg.WrapY},
		Tiles:    grid(cfg.W, cfg.H, tGrass),
		Overlays: map[string][][]int{decorLayer: grid(cfg.W, cfg.H, -1)},
		Legend:   legend,
	}
	n, err := m.Topology().ScreenNavigator()
	if err != nil {
		return nil, err
	}
	g := &generator{m: m, nav: n, rng: rand.New(rand.NewSource(cfg.Seed + 100)), decor: m.Overlays[decorLayer]}

	g.terrain(cfg.Seed)
	g.edges()
	x, y, ok := g.findSpawn()
	if !ok {
		return nil, errNoSpawn
	}
	m.SpawnX, m.SpawnY = x, y
	g.connect()
	return m, nil
}

func grid(w, h, fill int) [][]int {
	g := make([][]int, h)
	for y := range g {
		g[y] = make([]int, w)
		for x := range g[y] {
			g[y][x] = fill
		}
	}
	return g
}

func (g *generator) terrain(seed int64) {
	w, h := g.m.Width, g.m.Height
	elevation := NewFractal(seed, w, h, 24, 4)
	moisture := NewFractal(seed+1, w, h, 16, 3)
	for y := range h {
		for x := range w {
			elev, moist := elevation.At(x, y), moisture.At(x, y)
			ground := classifyTile(elev, moist)
			g.m.Tiles[y][x] = ground
			if ground != tGrass && ground != tTallGrass {
				continue
			}
			switch {
			case moist > 0.62:
				g.decor[y][x] = tTree
			case g.rng.Float64() < 0.03:
				g.decor[y][x] = tFlowers
			}
		}
	}
}

// classifyTile buckets the noise. Value noise clusters around 0.5, so
// the bands are narrower than they look.
func classifyTile(elev, moist float64) int {
	switch {
	case elev < 0.36:
		return tWater
	case elev < 0.41:
		return tShallowWater
	case elev < 0.44:
		return tSand
	case elev < 0.62:
		if moist > 0.52 {
			return tTallGrass
		}
		return tGrass
	case elev < 0.68:
		return tRock
	default:
		return tWall
	}
}

// edges walls off the rim of every axis that does not wrap.
func (g *generator) edges() {
	w, h := g.m.Width, g.m.Height
	for y := range h {
		for x := range w {
			rimX := !g.m.Wrap.X && (x == 0 || x == w-1)
			rimY := !g.m.Wrap.Y && (y == 0 || y == h-1)
			if rimX || rimY {
				g.m.Tiles[y][x] = tWall
				g.decor[y][x] = -1
			}
		}
	}
}

// findSpawn searches outward from the centre for a walkable tile with a
// mostly walkable neighbourhood.
func (g *generator) findSpawn() (int, int, bool) {
	w, h := g.m.Width, g.m.Height
	centre := nav.At(w/2, h/2)
	for r := 0; r <= max(w, h)/2; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if abs(dx) != r && abs(dy) != r {
					continue // only check the ring perimeter
				}
				c := centre.Add(nav.At(dx, dy))
				if !g.m.Contains(c.X, c.Y) || !g.m.IsWalkable(c.X, c.Y) {
					continue
				}
				open := 0
				for _, d := range nav.All {
					if to, ok := g.nav.NavigateTo(d, c, 1); ok && g.m.IsWalkable(to.X, to.Y) {
						open++
					}
				}
				if open >= 6 {
					return c.X, c.Y, true
				}
			}
		}
	}
	for y := range h {
		for x := range w {
			if g.m.IsWalkable(x, y) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// region floods the walkable tiles reachable from c the way viewers move.
func (g *generator) region(c nav.MapCoordinate) map[nav.MapCoordinate]bool {
	seen := map[nav.MapCoordinate]bool{c: true}
	stack := []nav.MapCoordinate{c}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range nav.Cardinals {
			to, ok := g.nav.NavigateTo(d, p, 1)
			if !ok || seen[to] || !g.m.IsWalkable(to.X, to.Y) {
				continue
			}
			seen[to] = true
			stack = append(stack, to)
		}
	}
	return seen
}

// connect plants over small unreachable pockets and carves a corridor
// from each larger one towards the spawn.
func (g *generator) connect() {
	spawn := nav.At(g.m.SpawnX, g.m.SpawnY)
	reached := g.region(spawn)
	filled, carved := 0, 0
	for y := range g.m.Height {
		for x := range g.m.Width {
			c := nav.At(x, y)
			if reached[c] || !g.m.IsWalkable(x, y) {
				continue
			}
			island := g.region(c)
			if len(island) < fillThreshold {
				for p := range island {
					g.decor[p.Y][p.X] = tTree
				}
				filled += len(island)
				continue
			}
			g.carve(c, spawn, reached)
			carved++
			reached = g.region(spawn)
		}
	}
	logf("connectivity: %d reachable tiles, %d corridors, %d pocket tiles planted", len(reached), carved, filled)
}

// carve walks from c towards target, taking the short way around wrapping
// axes, until it meets the main region.
func (g *generator) carve(c, target nav.MapCoordinate, reached map[nav.MapCoordinate]bool) {
	for steps := 0; steps < g.m.Width*g.m.Height && !reached[c]; steps++ {
		dx := shortest(target.X-c.X, g.m.Width, g.m.Wrap.X)
		dy := shortest(target.Y-c.Y, g.m.Height, g.m.Wrap.Y)
		d := nav.None
		switch {
		case abs(dx) >= abs(dy) && dx > 0:
			d = nav.East
		case abs(dx) >= abs(dy) && dx < 0:
			d = nav.West
		case dy > 0:
			d = nav.South
		case dy < 0:
			d = nav.North
		}
		if d == nav.None {
			return
		}
		next, ok := g.nav.NavigateTo(d, c, 1)
		if !ok {
			return
		}
		c = next
		if g.m.IsWalkable(c.X, c.Y) {
			continue
		}
		g.decor[c.Y][c.X] = -1
		switch g.m.Tiles[c.Y][c.X] {
		case tWater, tShallowWater:
			g.m.Tiles[c.Y][c.X] = tBridge
		default:
			g.m.Tiles[c.Y][c.X] = tPath
		}
	}
}

// shortest returns the signed step count to cover delta, going around a
// wrapping axis of length size when that is shorter.
func shortest(delta, size int, wraps bool) int {
	if !wraps {
		return delta
	}
	delta %= size
	switch {
	case delta > size/2:
		delta -= size
	case delta < -size/2:
		delta += size
	}
	return delta
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// validate round-trips the map through the loader.
func validate(m *maps.Map) ([]byte, error) {
	data, err := m.Encode()
	if err != nil {
		return nil, err
	}
	if _, err := maps.ParseMap(data); err != nil {
		return nil, fmt.Errorf("generated map does not load: %w", err)
	}
	return data, nil
}
