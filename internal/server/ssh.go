// Package server exposes the viewer loop over SSH. Every session gets a
// camera that follows its viewer and a diffing terminal renderer.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gliderlabs/ssh"
	"github.com/sirupsen/logrus"

	"tileview/internal/render"
	"tileview/internal/scene"
)

const shutdownGrace = 5 * time.Second

// SSHServer wraps the SSH listener and loop integration.
type SSHServer struct {
	loop    *scene.Loop
	builder *scene.Builder
	atlas   *render.Atlas
	addr    string
	hostKey string
}

// NewSSHServer creates a new SSH server bound to the given address.
func NewSSHServer(addr, hostKey string, loop *scene.Loop, b *scene.Builder, atlas *render.Atlas) *SSHServer {
	return &SSHServer{
		loop:    loop,
		builder: b,
		atlas:   atlas,
		addr:    addr,
		hostKey: hostKey,
	}
}

// Serve accepts connections until ctx is done, then shuts the listener
// down and waits briefly for open sessions.
func (s *SSHServer) Serve(ctx context.Context) error {
	server := &ssh.Server{
		Addr:    s.addr,
		Handler: s.handleSession,
	}

	if err := server.SetOption(ssh.HostKeyFile(s.hostKey)); err != nil {
		return fmt.Errorf("set host key: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", s.addr).Info("ssh server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("ssh listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		logrus.WithError(err).Warn("ssh shutdown")
		return server.Close()
	}
	return nil
}

func (s *SSHServer) handleSession(sess ssh.Session) {
	// Require PTY
	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		fmt.Fprintln(sess, "Error: PTY required. Use: ssh -t ...")
		return
	}

	username := sess.User()
	if username == "" {
		username = "Anonymous"
	}

	viewerID, frames := s.loop.AddViewer(username)
	log := logrus.WithFields(logrus.Fields{"session": viewerID, "user": username})
	log.Info("session opened")
	defer func() {
		s.loop.RemoveViewer(viewerID)
		log.Info("session closed")
	}()

	// Terminal dimensions
	termW := ptyReq.Window.Width
	termH := ptyReq.Window.Height
	var termMu sync.Mutex

	engine := render.NewEngine(sess, s.atlas, termW, termH)
	camera := s.builder.NewCamera(s.loop.World(), engine)

	io.WriteString(sess, render.EnterSession())
	defer io.WriteString(sess, render.LeaveSession())

	inputCh := s.loop.InputChan()
	quitCh := make(chan struct{})

	// Goroutine: read input
	go func() {
		defer close(quitCh)
		buf := make([]byte, 64)
		for {
			n, err := sess.Read(buf)
			if err != nil {
				return
			}
			for _, action := range parseInput(buf[:n]) {
				if action == scene.ActionQuit {
					return
				}
				select {
				case inputCh <- scene.InputEvent{ViewerID: viewerID, Action: action}:
				default:
				}
			}
		}
	}()

	// Goroutine: handle window resizes
	go func() {
		for win := range winCh {
			termMu.Lock()
			termW = win.Width
			termH = win.Height
			termMu.Unlock()
		}
	}()

	ctx := sess.Context()
	for {
		select {
		case <-quitCh:
			return
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			me, ok := frame.Find(viewerID)
			if !ok {
				continue
			}

			termMu.Lock()
			w, h := termW, termH
			termMu.Unlock()
			if cw, ch := engine.Size(); cw != w || ch != h {
				engine.Resize(w, h)
			}

			engine.SetStatus(render.Status{
				Viewer: me.Name,
				Map:    me.MapName,
				Online: len(frame.Viewers),
				Focus:  me.Focus.Continuous(),
				Notice: me.Notice,
			})
			if err := camera.Render(ctx, me, engine.MapBounds()); err != nil {
				if ctx.Err() == nil {
					log.WithError(err).Error("render failed")
				}
				return
			}
		}
	}
}

// parseInput converts raw bytes into viewer actions.
// Handles WASD, arrow key escape sequences, Q, and Ctrl-C.
func parseInput(data []byte) []scene.Action {
	var actions []scene.Action
	i := 0
	for i < len(data) {
		// Check for escape sequences (arrow keys)
		if i+2 < len(data) && data[i] == 0x1b && data[i+1] == '[' {
			switch data[i+2] {
			case 'A':
				actions = append(actions, scene.ActionUp)
			case 'B':
				actions = append(actions, scene.ActionDown)
			case 'C':
				actions = append(actions, scene.ActionRight)
			case 'D':
				actions = append(actions, scene.ActionLeft)
			}
			i += 3
			continue
		}

		r, size := utf8.DecodeRune(data[i:])
		switch r {
		case 'w', 'W':
			actions = append(actions, scene.ActionUp)
		case 's', 'S':
			actions = append(actions, scene.ActionDown)
		case 'a', 'A':
			actions = append(actions, scene.ActionLeft)
		case 'd', 'D':
			actions = append(actions, scene.ActionRight)
		case 'q', 'Q':
			actions = append(actions, scene.ActionQuit)
		case 3: // Ctrl-C
			actions = append(actions, scene.ActionQuit)
		}
		i += size
	}
	return actions
}
