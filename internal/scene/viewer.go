package scene

import "tileview/internal/nav"

// Action represents a viewer input action.
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionQuit
)

// Direction is the screen direction an action moves the camera, or
// nav.None.
func (a Action) Direction() nav.Direction {
	switch a {
	case ActionUp:
		return nav.North
	case ActionDown:
		return nav.South
	case ActionLeft:
		return nav.West
	case ActionRight:
		return nav.East
	}
	return nav.None
}

// InputEvent carries a viewer action into the loop.
type InputEvent struct {
	ViewerID string
	Action   Action
}

// Viewer is a connected session's camera.
type Viewer struct {
	ID      string
	Name    string
	MapName string
	Focus   nav.MapCoordinate

	MoveCooldown int // ticks until next move allowed
	Notice       string
	NoticeTicks  int
}

// ViewerSnapshot is a read-only copy of viewer state for rendering.
type ViewerSnapshot struct {
	ID      string
	Name    string
	MapName string
	Focus   nav.MapCoordinate
	Notice  string
}

// Snapshot returns a read-only copy of the viewer.
func (v *Viewer) Snapshot() ViewerSnapshot {
	return ViewerSnapshot{
		ID:      v.ID,
		Name:    v.Name,
		MapName: v.MapName,
		Focus:   v.Focus,
		Notice:  v.Notice,
	}
}

// Frame is the per-tick snapshot sent to each session.
type Frame struct {
	Viewers []ViewerSnapshot
	Tick    uint64
}

// Find returns the snapshot of viewer id.
func (f Frame) Find(id string) (ViewerSnapshot, bool) {
	for _, v := range f.Viewers {
		if v.ID == id {
			return v, true
		}
	}
	return ViewerSnapshot{}, false
}

// FrameChan is the per-session channel that receives frames.
type FrameChan chan Frame
