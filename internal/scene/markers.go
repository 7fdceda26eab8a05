package scene

import (
	"sync"

	"tileview/internal/maps"
	"tileview/internal/nav"
	"tileview/internal/plan"
	"tileview/internal/tile"
)

// ViewerTag is the graphic tag of a viewer marker.
const ViewerTag tile.GraphicTag = "viewer"

// ViewerSet holds the viewer markers of the last tick, per map. Each tick
// replaces the whole set, so queries see one consistent tick.
type ViewerSet struct {
	mu    sync.RWMutex
	byMap map[string]*maps.SparseDataSet
	z     int
}

func NewViewerSet(z int) *ViewerSet {
	return &ViewerSet{byMap: make(map[string]*maps.SparseDataSet), z: z}
}

// Update replaces the markers with one per viewer.
func (s *ViewerSet) Update(viewers []ViewerSnapshot) {
	objs := make(map[string][]maps.Object)
	for _, v := range viewers {
		objs[v.MapName] = append(objs[v.MapName], maps.Object{Tag: ViewerTag, Position: v.Focus.Continuous(), Entity: v})
	}
	byMap := make(map[string]*maps.SparseDataSet, len(objs))
	for name, o := range objs {
		byMap[name] = maps.NewSparseDataSet(s.z, o...)
	}
	s.mu.Lock()
	s.byMap = byMap
	s.mu.Unlock()
}

func (s *ViewerSet) current(mapName string) *maps.SparseDataSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byMap[mapName]
}

// ForMap is the data set of the markers on one map.
func (s *ViewerSet) ForMap(mapName string) tile.TileDataSet {
	return mapMarkers{set: s, mapName: mapName}
}

type mapMarkers struct {
	set     *ViewerSet
	mapName string
}

func (m mapMarkers) QuerySparse(area plan.Area, z int, out []tile.QueryResult) []tile.QueryResult {
	ds := m.set.current(m.mapName)
	if ds == nil {
		return out[:0]
	}
	return ds.QuerySparse(area, z, out)
}

func (m mapMarkers) QueryPoint(c nav.MapCoordinate, z int, out []tile.QueryResult) []tile.QueryResult {
	ds := m.set.current(m.mapName)
	if ds == nil {
		return out[:0]
	}
	return ds.QueryPoint(c, z, out)
}

func (mapMarkers) IsThreadSafe() bool { return true }
