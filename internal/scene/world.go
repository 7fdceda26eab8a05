package scene

import (
	"errors"
	"fmt"
	"slices"

	"tileview/internal/maps"
	"tileview/internal/nav"
)

var ErrUnknownMap = errors.New("scene: unknown map")

// World wraps multiple Maps and the screen-space navigator of each.
type World struct {
	Maps       map[string]*maps.Map
	DefaultMap string

	navs map[string]nav.Navigator
}

// NewWorld creates a world from the given map registry. An empty
// defaultMap picks the first map by name.
func NewWorld(allMaps map[string]*maps.Map, defaultMap string) (*World, error) {
	if len(allMaps) == 0 {
		return nil, fmt.Errorf("no maps: %w", ErrUnknownMap)
	}
	w := &World{Maps: allMaps, DefaultMap: defaultMap, navs: make(map[string]nav.Navigator, len(allMaps))}
	if w.DefaultMap == "" {
		w.DefaultMap = w.MapNames()[0]
	}
	if _, ok := allMaps[w.DefaultMap]; !ok {
		return nil, fmt.Errorf("default map %q: %w", w.DefaultMap, ErrUnknownMap)
	}
	for name, m := range allMaps {
		n, err := m.Topology().ScreenNavigator()
		if err != nil {
			return nil, fmt.Errorf("map %q: %w", name, err)
		}
		w.navs[name] = n
	}
	return w, nil
}

func (w *World) MapNames() []string {
	names := make([]string, 0, len(w.Maps))
	for name := range w.Maps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SpawnPoint returns the default map's name and spawn coordinates.
func (w *World) SpawnPoint() (string, nav.MapCoordinate) {
	m := w.Maps[w.DefaultMap]
	return w.DefaultMap, nav.At(m.SpawnX, m.SpawnY)
}

// Step moves one cell from `from` towards d as seen on screen. Wrapping
// axes wrap, limited axes and unwalkable tiles block.
func (w *World) Step(mapName string, from nav.MapCoordinate, d nav.Direction) (nav.MapCoordinate, bool) {
	m, ok := w.Maps[mapName]
	if !ok {
		return from, false
	}
	to, ok := w.navs[mapName].NavigateTo(d, from, 1)
	if !ok || !m.IsWalkable(to.X, to.Y) {
		return from, false
	}
	return to, true
}

// PortalAt returns the portal at the given position on the named map, or nil.
func (w *World) PortalAt(mapName string, c nav.MapCoordinate) *maps.Portal {
	m, ok := w.Maps[mapName]
	if !ok {
		return nil
	}
	return m.PortalAt(c.X, c.Y)
}

// GetMap returns the map with the given name, or nil.
func (w *World) GetMap(name string) *maps.Map {
	return w.Maps[name]
}
