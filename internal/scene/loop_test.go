package scene

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tileview/internal/nav"
)

func send(l *Loop, id string, a Action) {
	l.InputChan() <- InputEvent{ViewerID: id, Action: a}
}

func nextFrame(t *testing.T, ch FrameChan) Frame {
	t.Helper()
	select {
	case f := <-ch:
		return f
	default:
		require.FailNow(t, "no frame queued")
		return Frame{}
	}
}

func TestTiming(t *testing.T) {
	assert.Equal(t, 50*time.Millisecond, Timing{}.Interval())
	assert.Equal(t, 3, Timing{Rate: 20}.moveRepeatDelay())
	assert.Equal(t, 1, Timing{Rate: 1}.moveRepeatDelay(), "at least one tick")
	assert.Equal(t, 60, Timing{Rate: 20}.noticeDuration())
}

func TestLoopMovesThroughPortal(t *testing.T) {
	l := NewLoop(testWorld(t), Timing{Rate: 1})
	id, frames := l.AddViewer("ann")
	assert.Equal(t, 1, l.Online())

	steps := []struct {
		action  Action
		mapName string
		focus   nav.MapCoordinate
	}{
		{ActionDown, "plain", nav.At(1, 2)},
		{ActionRight, "plain", nav.At(2, 2)},
		{ActionRight, "cave", nav.At(0, 0)},
	}
	for i, s := range steps {
		send(l, id, s.action)
		l.tick()
		f := nextFrame(t, frames)
		assert.Equal(t, uint64(i+1), f.Tick)
		v, ok := f.Find(id)
		require.True(t, ok)
		assert.Equal(t, s.mapName, v.MapName)
		assert.Equal(t, s.focus, v.Focus)
	}

	v, _ := nextFrameAfterTick(t, l, frames).Find(id)
	assert.Equal(t, "Entered cave", v.Notice)

	v, _ = nextFrameAfterTick(t, l, frames).Find(id)
	assert.Empty(t, v.Notice, "notice expires")

	markers := l.Markers().ForMap("cave").QueryPoint(nav.At(0, 0), 0, nil)
	require.Len(t, markers, 1)
	assert.Equal(t, ViewerTag, markers[0].Tag)
}

func nextFrameAfterTick(t *testing.T, l *Loop, ch FrameChan) Frame {
	t.Helper()
	l.tick()
	return nextFrame(t, ch)
}

func TestLoopMoveCooldown(t *testing.T) {
	l := NewLoop(testWorld(t), Timing{Rate: 20})
	id, frames := l.AddViewer("ann")

	send(l, id, ActionUp)
	v, _ := nextFrameAfterTick(t, l, frames).Find(id)
	assert.Equal(t, nav.At(1, 0), v.Focus)

	send(l, id, ActionDown)
	v, _ = nextFrameAfterTick(t, l, frames).Find(id)
	assert.Equal(t, nav.At(1, 0), v.Focus, "still cooling down")

	l.tick()
	<-frames
	send(l, id, ActionDown)
	v, _ = nextFrameAfterTick(t, l, frames).Find(id)
	assert.Equal(t, nav.At(1, 1), v.Focus)
}

func TestLoopIgnoresBlockedAndUnknown(t *testing.T) {
	l := NewLoop(testWorld(t), Timing{Rate: 1})
	id, frames := l.AddViewer("ann")

	send(l, id, ActionRight)
	send(l, "ghost", ActionLeft)
	send(l, id, ActionQuit)
	v, _ := nextFrameAfterTick(t, l, frames).Find(id)
	assert.Equal(t, nav.At(1, 1), v.Focus)
}

func TestLoopViewers(t *testing.T) {
	l := NewLoop(testWorld(t), Timing{Rate: 1})
	id, frames := l.AddViewer("ann")
	id2, _ := l.AddViewer("ann")
	assert.NotEqual(t, id, id2, "duplicate names get a suffix")

	send(l, id, ActionUp)
	l.tick()
	l.RemoveViewer(id)
	<-frames
	_, open := <-frames
	assert.False(t, open, "frame channel closes on leave")
	assert.Equal(t, 1, l.Online())

	id3, frames3 := l.AddViewer("ann")
	l.tick()
	v, ok := nextFrame(t, frames3).Find(id3)
	require.True(t, ok)
	assert.Equal(t, nav.At(1, 0), v.Focus, "returning viewers resume")
}

func TestLoopDropsFramesForSlowViewers(t *testing.T) {
	l := NewLoop(testWorld(t), Timing{Rate: 1})
	_, frames := l.AddViewer("ann")
	for range 5 {
		l.tick()
	}
	assert.Len(t, frames, cap(frames))
	assert.Equal(t, uint64(1), nextFrame(t, frames).Tick)
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	l := NewLoop(testWorld(t), Timing{Rate: 100})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
