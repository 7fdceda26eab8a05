package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tileview/internal/nav"
	"tileview/internal/view"
)

func newView(t *testing.T, focus nav.ContinuousMapCoordinate, topo nav.Topology) *view.View {
	t.Helper()
	v, err := view.New(view.Config{
		Bounds:   view.Rect{X: 0, Y: 0, Width: 320, Height: 240},
		Tile:     view.Size{Width: 32, Height: 32},
		Focus:    focus,
		Topology: topo,
	})
	require.NoError(t, err)
	return v
}

func wrap20() nav.Topology {
	return nav.Topology{
		X: nav.Border{Mode: nav.Wrap, Size: 20},
		Y: nav.Border{Mode: nav.Wrap, Size: 20},
	}
}

func TestGridPlanner(t *testing.T) {
	tests := []struct {
		name  string
		focus nav.ContinuousMapCoordinate
		topo  nav.Topology
		want  []QueryPlan
	}{
		{
			name:  "inside an open map",
			focus: nav.AtF(10, 10),
			want:  []QueryPlan{plan(5, 6, 14, 13)},
		},
		{
			name:  "inside a wrapping map",
			focus: nav.AtF(10, 10),
			topo:  wrap20(),
			want:  []QueryPlan{plan(5, 6, 14, 13)},
		},
		{
			name:  "straddling both wrap seams",
			focus: nav.AtF(0, 0),
			topo:  wrap20(),
			want: []QueryPlan{
				plan(15, 16, 19, 19),
				plan(0, 16, 4, 19),
				plan(15, 0, 19, 3),
				plan(0, 0, 4, 3),
			},
		},
		{
			name:  "straddling the east seam only",
			focus: nav.AtF(19, 10),
			topo:  nav.Topology{X: nav.Border{Mode: nav.Wrap, Size: 20}},
			want:  []QueryPlan{plan(14, 6, 19, 13), plan(0, 6, 3, 13)},
		},
		{
			name:  "clipped by hard limits",
			focus: nav.AtF(0, 0),
			topo: nav.Topology{
				X: nav.Border{Mode: nav.Limit, Size: 20},
				Y: nav.Border{Mode: nav.Limit, Size: 20},
			},
			want: []QueryPlan{plan(0, 0, 4, 3)},
		},
		{
			name:  "entirely outside a limited map",
			focus: nav.AtF(100, 100),
			topo: nav.Topology{
				X: nav.Border{Mode: nav.Limit, Size: 20},
				Y: nav.Border{Mode: nav.Limit, Size: 20},
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newView(t, tt.focus, tt.topo)
			assert.Equal(t, tt.want, NewGridPlanner().Plan(v))
		})
	}
}

func TestGridPlannerOverdraw(t *testing.T) {
	v := newView(t, nav.AtF(10, 10), nav.Topology{})
	v.SetOverdraw(32)
	assert.Equal(t, []QueryPlan{plan(4, 5, 15, 14)}, NewGridPlanner().Plan(v))
}

func TestWrappedPlansCoverUnwrappedCells(t *testing.T) {
	open := NewGridPlanner().Plan(newView(t, nav.AtF(0, 0), nav.Topology{}))
	require.Len(t, open, 1)

	wrapped := NewGridPlanner().Plan(newView(t, nav.AtF(0, 0), wrap20()))
	count := 0
	for _, p := range wrapped {
		a := p.ToArea()
		count += a.Width * a.Height
	}
	a := open[0].ToArea()
	assert.Equal(t, a.Width*a.Height, count)
}

func TestIsoPlanner(t *testing.T) {
	v, err := view.New(view.Config{
		Bounds:   view.Rect{Width: 256, Height: 128},
		Tile:     view.Size{Width: 64, Height: 32},
		Focus:    nav.AtF(10, 20),
		Topology: nav.Topology{GridType: nav.IsoStaggered},
	})
	require.NoError(t, err)

	plans := NewIsoPlanner().Plan(v)
	require.Len(t, plans, 1)
	a := plans[0].ToArea()
	assert.Equal(t, Area{X: 8, Y: 16, Width: 5, Height: 8}, a)
	assert.True(t, a.Contains(nav.At(10, 20)), "focus cell is planned")
}

func TestIsoPlannerWrapsOnEvenHeight(t *testing.T) {
	v, err := view.New(view.Config{
		Bounds: view.Rect{Width: 256, Height: 128},
		Tile:   view.Size{Width: 64, Height: 32},
		Focus:  nav.AtF(0, 0),
		Topology: nav.Topology{
			GridType: nav.IsoStaggered,
			X:        nav.Border{Mode: nav.Wrap, Size: 16},
			Y:        nav.Border{Mode: nav.Wrap, Size: 32},
		},
	})
	require.NoError(t, err)

	plans := NewIsoPlanner().Plan(v)
	assert.Len(t, plans, 4)
	for _, p := range plans {
		a := p.ToArea()
		assert.GreaterOrEqual(t, a.X, 0)
		assert.LessOrEqual(t, a.MaxX(), 15)
		assert.GreaterOrEqual(t, a.Y, 0)
		assert.LessOrEqual(t, a.MaxY(), 31)
	}
}

func TestForGrid(t *testing.T) {
	assert.IsType(t, GridPlanner{}, ForGrid(nav.Grid))
	assert.IsType(t, IsoPlanner{}, ForGrid(nav.IsoStaggered))
}

type countingPlanner struct {
	inner Planner
	calls int
}

func (c *countingPlanner) Plan(v view.Viewport) []QueryPlan {
	c.calls++
	return c.inner.Plan(v)
}

func TestCachingPlanner(t *testing.T) {
	counter := &countingPlanner{inner: NewGridPlanner()}
	cp := NewCachingPlanner(counter)
	v := newView(t, nav.AtF(10, 10), nav.Topology{})

	first := cp.Plan(v)
	second := cp.Plan(v)
	assert.Equal(t, 1, counter.calls)
	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &second[0], "unchanged state returns the cached slice")

	changes := []struct {
		name  string
		apply func()
	}{
		{"focus", func() { v.SetFocus(nav.AtF(11, 10)) }},
		{"overdraw", func() { v.SetOverdraw(16) }},
		{"bounds", func() { v.SetBounds(view.Rect{Width: 640, Height: 480}) }},
		{"z layer", func() { v.SetZLayer(1) }},
	}
	for i, c := range changes {
		t.Run(c.name, func(t *testing.T) {
			c.apply()
			cp.Plan(v)
			assert.Equal(t, i+2, counter.calls)
			cp.Plan(v)
			assert.Equal(t, i+2, counter.calls)
		})
	}

	cp.Invalidate()
	cp.Plan(v)
	assert.Equal(t, len(changes)+2, counter.calls)
}

func TestSharedCache(t *testing.T) {
	sc, err := NewSharedCache(SharedCacheConfig{MaxEntries: 128, TTL: time.Minute})
	require.NoError(t, err)
	defer sc.Close()

	counter := &countingPlanner{inner: NewGridPlanner()}
	overworld := sc.Scoped("overworld", counter)
	v := newView(t, nav.AtF(10, 10), nav.Topology{})

	want := overworld.Plan(v)
	sc.cache.Wait()
	assert.Equal(t, want, overworld.Plan(v))
	assert.Equal(t, 1, counter.calls)

	other := sc.Scoped("cave", counter)
	other.Plan(v)
	assert.Equal(t, 2, counter.calls, "scopes do not share entries")
}
