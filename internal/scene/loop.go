// Package scene runs the shared tick loop that moves viewer cameras and
// builds the per-map layer stacks they render.
package scene

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tileview/internal/nav"
)

const InputChanSize = 256

// savedState holds the camera of a viewer who disconnected.
type savedState struct {
	MapName string
	X, Y    int
}

// Loop is the central tick loop. Sessions feed it input events and
// receive a Frame every tick.
type Loop struct {
	world     *World
	timing    Timing
	inputCh   chan InputEvent
	markers   *ViewerSet
	tickCount uint64

	mu         sync.RWMutex
	viewers    map[string]*Viewer
	frameChans map[string]FrameChan
	saved      map[string]savedState // keyed by name
}

// NewLoop creates a loop over world ticking at timing.Rate.
func NewLoop(world *World, timing Timing) *Loop {
	return &Loop{
		world:      world,
		timing:     timing,
		inputCh:    make(chan InputEvent, InputChanSize),
		markers:    NewViewerSet(0),
		viewers:    make(map[string]*Viewer),
		frameChans: make(map[string]FrameChan),
		saved:      make(map[string]savedState),
	}
}

func (l *Loop) World() *World { return l.world }

// Markers is the data set of viewer positions, refreshed every tick.
func (l *Loop) Markers() *ViewerSet { return l.markers }

// InputChan returns the shared input channel for sessions to send events.
func (l *Loop) InputChan() chan<- InputEvent {
	return l.inputCh
}

// Online returns the number of connected viewers.
func (l *Loop) Online() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.viewers)
}

// AddViewer registers a viewer by name. A returning name gets its saved
// camera back. Returns the effective viewer ID and the frame channel.
func (l *Loop) AddViewer(name string) (string, FrameChan) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// If this name is already online, add a suffix
	id := name
	if _, online := l.viewers[id]; online {
		id = fmt.Sprintf("%s_%04d", name, time.Now().UnixNano()%10000)
	}

	v := &Viewer{ID: id, Name: name}
	if ss, ok := l.saved[name]; ok && l.world.GetMap(ss.MapName) != nil {
		v.MapName = ss.MapName
		v.Focus.X, v.Focus.Y = ss.X, ss.Y
	} else {
		v.MapName, v.Focus = l.world.SpawnPoint()
	}

	l.viewers[id] = v
	ch := make(FrameChan, 2)
	l.frameChans[id] = ch
	logrus.WithFields(logrus.Fields{"session": id, "map": v.MapName}).Info("viewer joined")
	return id, ch
}

// RemoveViewer saves the viewer's camera and unregisters them.
func (l *Loop) RemoveViewer(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.viewers[id]; ok {
		l.saved[v.Name] = savedState{MapName: v.MapName, X: v.Focus.X, Y: v.Focus.Y}
		delete(l.viewers, id)
	}
	if ch, ok := l.frameChans[id]; ok {
		close(ch)
		delete(l.frameChans, id)
	}
	logrus.WithField("session", id).Info("viewer left")
}

// Run ticks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.timing.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.tick()
		}
	}
}

func (l *Loop) tick() {
	// Drain all pending input events
drain:
	for {
		select {
		case ev := <-l.inputCh:
			l.processInput(ev)
		default:
			break drain
		}
	}

	l.mu.Lock()
	l.tickCount++
	frame := Frame{
		Viewers: make([]ViewerSnapshot, 0, len(l.viewers)),
		Tick:    l.tickCount,
	}
	for _, v := range l.viewers {
		if v.MoveCooldown > 0 {
			v.MoveCooldown--
		}
		if v.NoticeTicks > 0 {
			v.NoticeTicks--
			if v.NoticeTicks == 0 {
				v.Notice = ""
			}
		}
		frame.Viewers = append(frame.Viewers, v.Snapshot())
	}
	l.mu.Unlock()

	l.markers.Update(frame.Viewers)

	// Non-blocking send to each frame channel
	l.mu.RLock()
	for _, ch := range l.frameChans {
		select {
		case ch <- frame:
		default:
			// Drop frame for slow client
		}
	}
	l.mu.RUnlock()
}

func (l *Loop) processInput(ev InputEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.viewers[ev.ViewerID]
	if !ok || v.MoveCooldown > 0 {
		return
	}
	d := ev.Action.Direction()
	if d == nav.None {
		return
	}
	to, ok := l.world.Step(v.MapName, v.Focus, d)
	if !ok {
		return
	}
	v.Focus = to
	v.MoveCooldown = l.timing.moveRepeatDelay()

	if p := l.world.PortalAt(v.MapName, to); p != nil {
		v.MapName = p.TargetMap
		v.Focus.X, v.Focus.Y = p.TargetX, p.TargetY
		v.Notice = "Entered " + p.TargetMap
		v.NoticeTicks = l.timing.noticeDuration()
		logrus.WithFields(logrus.Fields{"session": v.ID, "map": p.TargetMap}).Debug("portal")
	}
}
