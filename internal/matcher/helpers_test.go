package matcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tileview/internal/classify"
	"tileview/internal/nav"
	"tileview/internal/plan"
	"tileview/internal/tile"
)

// fakeData is a tiny in-memory data set built from ascii rows.
type fakeData struct {
	cells  map[nav.MapCoordinate][]tile.GraphicTag
	unsafe bool
}

var legend = map[rune]tile.GraphicTag{
	'G': "grass",
	'P': "path",
	'W': "water",
	'S': "sand",
	'D': "deep",
}

func dataOf(rows ...string) *fakeData {
	d := &fakeData{cells: make(map[nav.MapCoordinate][]tile.GraphicTag)}
	for y, row := range rows {
		for x, r := range row {
			if tag, ok := legend[r]; ok {
				c := nav.At(x, y)
				d.cells[c] = append(d.cells[c], tag)
			}
		}
	}
	return d
}

func (d *fakeData) QuerySparse(area plan.Area, _ int, out []tile.QueryResult) []tile.QueryResult {
	out = out[:0]
	for c := range area.Cells() {
		for _, tag := range d.cells[c] {
			out = append(out, tile.QueryResult{Tag: tag, Position: c.Continuous()})
		}
	}
	return out
}

func (d *fakeData) QueryPoint(c nav.MapCoordinate, _ int, out []tile.QueryResult) []tile.QueryResult {
	out = out[:0]
	for _, tag := range d.cells[c] {
		out = append(out, tile.QueryResult{Tag: tag, Position: c.Continuous()})
	}
	return out
}

func (d *fakeData) IsThreadSafe() bool { return !d.unsafe }

func testMeta(t *testing.T) *classify.MetadataStore {
	t.Helper()
	r, err := classify.NewRegistry(16)
	require.NoError(t, err)
	m := classify.NewMetadataStore(r)
	require.NoError(t, m.Define("grass", []string{"land"}, []string{BlendFlag}, map[string]string{BlendPriorityProperty: "2"}))
	require.NoError(t, m.Define("sand", []string{"land"}, []string{BlendFlag}, map[string]string{BlendPriorityProperty: "1"}))
	require.NoError(t, m.Define("path", []string{"path"}, nil, nil))
	require.NoError(t, m.Define("water", []string{"water"}, nil, nil))
	require.NoError(t, m.Define("deep", []string{"water"}, nil, nil))
	return m
}

func testEnv(t *testing.T, data tile.TileDataSet) *Env {
	t.Helper()
	return NewEnv(nav.NewGridNavigator(), data, testMeta(t))
}

func build(t *testing.T, env *Env, m Model) Matcher {
	t.Helper()
	built, err := NewFactory().Build(m, env)
	require.NoError(t, err)
	return built
}

func at(tag tile.GraphicTag, x, y int) tile.QueryResult {
	return tile.QueryResult{Tag: tag, Position: nav.AtF(float64(x), float64(y))}
}

func run(m Matcher, in tile.QueryResult) (Selections, bool) {
	var out Selections
	ok := m.Match(in, 0, &out)
	return out, ok
}

func sel(id, q string, pos tile.SpritePosition) Selection {
	return Selection{Tag: tile.SpriteTag{ID: id, Qualifier: q}, Position: pos}
}
