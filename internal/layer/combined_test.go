package layer

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tileview/internal/nav"
	"tileview/internal/plan"
	"tileview/internal/tile"
)

// origin identifies where a merged instruction came from.
type origin struct {
	layer int
	order int
}

func randomLayers(rng *rand.Rand, order SortOrder, n int) []RenderLayer {
	layers := make([]RenderLayer, n)
	for i := range n {
		buf := make([]tile.ScreenRenderInstruction, rng.Intn(40))
		for j := range buf {
			buf[j] = ins(float64(rng.Intn(4)*32), float64(rng.Intn(4)*32), j, origin{layer: i, order: j})
		}
		slices.SortFunc(buf, order.Compare)
		layers[i] = &staticLayer{name: string(rune('a' + i)), order: order, buf: buf}
	}
	return layers
}

// mergedKeyLess checks the merge key: screen position, then layer, then
// the order within the layer.
func mergedKeyLess(order SortOrder, a, b tile.ScreenRenderInstruction) bool {
	if c := order.CompareScreen(a, b); c != 0 {
		return c < 0
	}
	oa, ob := a.Entity.(origin), b.Entity.(origin)
	if oa.layer != ob.layer {
		return oa.layer < ob.layer
	}
	return oa.order <= ob.order
}

func TestCombinedMergeIsSorted(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, order := range []SortOrder{TopDownLeftRight, TopDownRightLeft, BottomUpLeftRight, BottomUpRightLeft} {
		t.Run(order.String(), func(t *testing.T) {
			for range 20 {
				layers := randomLayers(rng, order, 1+rng.Intn(5))
				c, err := NewCombined(CombinedConfig{Name: "stack", Order: order, Layers: layers})
				require.NoError(t, err)

				got, err := c.PrepareRenderLayer(context.Background(), newView(t, nav.AtF(0, 0), nav.Topology{}), nil)
				require.NoError(t, err)

				total := 0
				for _, l := range layers {
					total += len(l.(*staticLayer).buf)
				}
				require.Len(t, got, total)
				for i := range got {
					assert.Equal(t, i, got[i].Order, "order is renumbered")
					if i > 0 {
						require.True(t, mergedKeyLess(order, got[i-1], got[i]), "out of order at %d", i)
					}
				}
			}
		})
	}
}

func TestCombinedPreservesLayerPriority(t *testing.T) {
	same := func(layer int) *staticLayer {
		return &staticLayer{name: "l", buf: []tile.ScreenRenderInstruction{ins(5, 5, 0, layer)}}
	}
	c, err := NewCombined(CombinedConfig{Layers: []RenderLayer{same(0), same(1), same(2)}})
	require.NoError(t, err)

	got, err := c.PrepareRenderLayer(context.Background(), newView(t, nav.AtF(0, 0), nav.Topology{}), nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, g := range got {
		assert.Equal(t, i, g.Entity)
	}
}

func TestCombinedLaterLayerDrawsOnTop(t *testing.T) {
	grass := make(map[nav.MapCoordinate]tile.GraphicTag)
	for y := range 20 {
		for x := range 20 {
			grass[nav.At(x, y)] = "grass"
		}
	}
	ground := newLayer(t, Config{Name: "ground", Data: dataAt(grass)})
	items := newLayer(t, Config{Name: "items", Data: dataAt(map[nav.MapCoordinate]tile.GraphicTag{nav.At(10, 10): "chest"})})
	c, err := NewCombined(CombinedConfig{Name: "world", Layers: []RenderLayer{ground, items}})
	require.NoError(t, err)

	v := newView(t, nav.AtF(10, 10), nav.Topology{})
	got, err := c.PrepareRenderLayer(context.Background(), v, plan.NewGridPlanner().Plan(v))
	require.NoError(t, err)

	chest := slices.IndexFunc(got, func(s tile.ScreenRenderInstruction) bool { return s.Tag.ID == "chest" })
	require.GreaterOrEqual(t, chest, 0)
	under := slices.IndexFunc(got, func(s tile.ScreenRenderInstruction) bool {
		return s.Tag.ID == "grass" && s.Screen == got[chest].Screen
	})
	require.GreaterOrEqual(t, under, 0)
	assert.Less(t, under, chest, "ground at the chest's cell must be drawn first")

	t.Run("across mismatched order counters", func(t *testing.T) {
		low := &staticLayer{name: "ground", buf: []tile.ScreenRenderInstruction{ins(5, 5, 40, "ground")}}
		high := &staticLayer{name: "viewers", buf: []tile.ScreenRenderInstruction{ins(5, 5, 0, "viewer")}}
		c, err := NewCombined(CombinedConfig{Layers: []RenderLayer{low, high}})
		require.NoError(t, err)
		got, err := c.PrepareRenderLayer(context.Background(), v, nil)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "ground", got[0].Entity)
		assert.Equal(t, "viewer", got[1].Entity)
	})
}

func TestCombinedParallel(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	layers := randomLayers(rng, TopDownLeftRight, 6)
	v := newView(t, nav.AtF(0, 0), nav.Topology{})

	seq, err := NewCombined(CombinedConfig{Layers: layers})
	require.NoError(t, err)
	want, err := seq.PrepareRenderLayer(context.Background(), v, nil)
	require.NoError(t, err)
	want = slices.Clone(want)

	par, err := NewCombined(CombinedConfig{Layers: layers, Parallel: true, MaxParallel: 2})
	require.NoError(t, err)
	got, err := par.PrepareRenderLayer(context.Background(), v, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	for _, l := range layers {
		assert.LessOrEqual(t, l.(*staticLayer).peak.Load(), int32(1))
	}
}

func TestCombinedSequentialWhenUnsafe(t *testing.T) {
	unsafe := &staticLayer{name: "unsafe", unsafe: true, buf: []tile.ScreenRenderInstruction{ins(0, 0, 0, "u")}}
	safe := &staticLayer{name: "safe", buf: []tile.ScreenRenderInstruction{ins(0, 32, 0, "s")}}
	c, err := NewCombined(CombinedConfig{Layers: []RenderLayer{unsafe, safe}, Parallel: true})
	require.NoError(t, err)
	assert.False(t, c.IsThreadSafe())

	got, err := c.PrepareRenderLayer(context.Background(), newView(t, nav.AtF(0, 0), nav.Topology{}), nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCombinedPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &staticLayer{name: "ok", buf: []tile.ScreenRenderInstruction{ins(0, 0, 0, nil)}}
	bad := &staticLayer{name: "bad", err: boom}

	for _, parallel := range []bool{false, true} {
		c, err := NewCombined(CombinedConfig{Layers: []RenderLayer{ok, bad}, Parallel: parallel})
		require.NoError(t, err)
		got, err := c.PrepareRenderLayer(context.Background(), newView(t, nav.AtF(0, 0), nav.Topology{}), nil)
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err := NewCombined(CombinedConfig{Layers: []RenderLayer{ok}, Parallel: true})
	require.NoError(t, err)
	_, err = c.PrepareRenderLayer(ctx, newView(t, nav.AtF(0, 0), nav.Topology{}), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewCombinedValidates(t *testing.T) {
	_, err := NewCombined(CombinedConfig{Name: "empty"})
	assert.ErrorIs(t, err, ErrNilCollaborator)

	_, err = NewCombined(CombinedConfig{Layers: []RenderLayer{nil}})
	assert.ErrorIs(t, err, ErrNilCollaborator)

	_, err = NewCombined(CombinedConfig{Order: BottomUpLeftRight, Layers: []RenderLayer{&staticLayer{name: "x"}}})
	assert.ErrorContains(t, err, "sorts top-down-left-right")
}

func TestCombinedOverRealLayers(t *testing.T) {
	topo := nav.Topology{X: nav.Border{Mode: nav.Wrap, Size: 20}, Y: nav.Border{Mode: nav.Wrap, Size: 20}}
	v := newView(t, nav.AtF(0, 0), topo)
	plans := plan.NewCachingPlanner(plan.NewGridPlanner()).Plan(v)

	ground := newLayer(t, Config{Name: "ground", Data: wrapData(), Parallel: true})
	items := newLayer(t, Config{Name: "items", Data: dataAt(map[nav.MapCoordinate]tile.GraphicTag{
		nav.At(0, 0):   "chest",
		nav.At(19, 19): "key",
	})})
	inner, err := NewCombined(CombinedConfig{Name: "world", Layers: []RenderLayer{ground, items}, Parallel: true})
	require.NoError(t, err)
	overlay := newLayer(t, Config{Name: "overlay", Data: dataAt(map[nav.MapCoordinate]tile.GraphicTag{nav.At(1, 1): "cursor"})})
	r := &recordingRenderer{}
	outer, err := NewCombined(CombinedConfig{Name: "frame", Layers: []RenderLayer{inner, overlay}, Renderer: r})
	require.NoError(t, err)

	require.NoError(t, outer.Render(context.Background(), v, plans))
	require.Len(t, r.batches, 1)
	got := r.batches[0]
	assert.Contains(t, tags(got), "chest")
	assert.Contains(t, tags(got), "key")
	assert.Contains(t, tags(got), "cursor")
	assert.True(t, slices.IsSortedFunc(got, TopDownLeftRight.Compare))
}
