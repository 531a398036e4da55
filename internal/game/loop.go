package game

import (
	"fmt"
	"time"

	"github.com/holloway-fold/pongmesh/internal/gameconfig"
	"github.com/holloway-fold/pongmesh/internal/protocol"
	"github.com/holloway-fold/pongmesh/internal/session"
)

// Renderer is the out-of-scope presentation layer's seam into the loop:
// spec.md excludes rendering itself, but the loop still needs somewhere to
// hand a finished frame to.
type Renderer interface {
	Render(*State)
}

// InputSource polls local control state once per tick. Like Renderer, the
// concrete input backend (keyboard, gamepad, a test double) is outside this
// module's scope.
type InputSource interface {
	// PaddleDirection reports whether the local paddle is moving this
	// tick and which way. moving=false is the local-only "stopped" state
	// (ActionLeftPaddleStop/ActionRightPaddleStop in the original engine)
	// that never crosses the wire: the absence of a transmitted Input
	// message for a tick already tells the peer the paddle isn't moving.
	PaddleDirection() (up bool, moving bool)
	QuitRequested() bool
	RematchRequested() bool
}

// Loop runs the fixed-timestep match: the host integrates physics and
// emits BallSync/ScoreSync, the client dead-reckons and applies
// corrections, and both sides exchange Input/Ping/Heartbeat/rematch/quit
// messages identically. Grounded on original_source/src/game_modes/
// network.rs's per-frame branch structure.
type Loop struct {
	cfg       gameconfig.Config
	state     *State
	role      Role
	localSide Side

	net      *session.Runtime
	input    InputSource
	renderer Renderer

	ping      *PingTracker
	heartbeat *HeartbeatTracker
	rematch   *RematchCoordinator

	startedAt time.Time
	lastTick  time.Time
}

// NewLoop builds a Loop for one match. role determines which side runs
// physics; localSide determines which paddle the local InputSource drives.
func NewLoop(cfg gameconfig.Config, net *session.Runtime, input InputSource, renderer Renderer, role Role, localSide Side) *Loop {
	now := time.Now()
	return &Loop{
		cfg:       cfg,
		state:     New(cfg),
		role:      role,
		localSide: localSide,
		net:       net,
		input:     input,
		renderer:  renderer,
		ping:      NewPingTracker(now),
		heartbeat: NewHeartbeatTracker(cfg.Network.HeartbeatInterval),
		rematch:   &RematchCoordinator{},
		startedAt: now,
	}
}

// remoteSide is whichever paddle the local InputSource does not drive.
func (l *Loop) remoteSide() Side {
	if l.localSide == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Run drives the match to completion: a quit request (local or remote), a
// peer disconnect, or a context cancellation all end the loop.
func (l *Loop) Run(ctx stopper) error {
	interval := time.Second / time.Duration(l.cfg.Display.TargetFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.lastTick = time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-l.net.Events:
			if done, err := l.handleNetworkEvent(ev); done {
				return err
			}
		case now := <-ticker.C:
			if done, err := l.tick(now); done {
				return err
			}
		}
	}
}

// stopper is the minimal context.Context surface Run needs, kept narrow so
// tests can supply a fake without importing context machinery they don't
// use.
type stopper interface {
	Done() <-chan struct{}
	Err() error
}

func (l *Loop) tick(now time.Time) (done bool, err error) {
	dt := now.Sub(l.lastTick).Seconds()
	l.lastTick = now

	if l.input.QuitRequested() {
		l.net.Send(protocol.MessageQuitRequest())
		return true, nil
	}

	if up, moving := l.input.PaddleDirection(); moving {
		MovePaddle(l.state.Paddle(l.localSide), up, l.cfg)
		action := protocol.ActionLeftPaddleUp
		switch {
		case l.localSide == SideLeft && up:
			action = protocol.ActionLeftPaddleUp
		case l.localSide == SideLeft && !up:
			action = protocol.ActionLeftPaddleDown
		case l.localSide == SideRight && up:
			action = protocol.ActionRightPaddleUp
		case l.localSide == SideRight && !up:
			action = protocol.ActionRightPaddleDown
		}
		l.net.Send(protocol.MessageInput(action))
	}

	if l.state.GameOver && l.input.RematchRequested() {
		toSend, reset := l.rematch.LocalRequest()
		for _, msg := range toSend {
			l.net.Send(msg)
		}
		if reset {
			l.resetMatch()
		}
	}

	if msg, ok := l.ping.Tick(now); ok {
		l.net.Send(msg)
	}
	if msg, ok := l.heartbeat.Tick(now); ok {
		l.net.Send(msg)
	}

	switch l.role {
	case RoleHost:
		l.stepHost(dt)
	case RoleClient:
		Extrapolate(l.state, dt)
	}

	l.state.FrameCount++
	l.renderer.Render(l.state)
	return false, nil
}

func (l *Loop) stepHost(dt float64) {
	prevLeft, prevRight := l.state.LeftScore, l.state.RightScore
	ev := Step(l.state, l.cfg, dt)

	if l.state.LeftScore != prevLeft || l.state.RightScore != prevRight {
		l.net.Send(protocol.MessageScoreSync(l.state.LeftScore, l.state.RightScore, l.state.GameOver))
	}

	if ShouldSyncBall(ev.Collided, l.state.FrameCount, l.cfg.Network.BackupSyncInterval) {
		seq := NextSequence(l.state)
		timestampMS := uint64(time.Since(l.startedAt).Milliseconds())
		l.net.Send(protocol.MessageBallSync(seq, l.state.Ball.X, l.state.Ball.Y, l.state.Ball.VX, l.state.Ball.VY, timestampMS))
	}
}

func (l *Loop) handleNetworkEvent(ev session.NetworkEvent) (done bool, err error) {
	switch ev.Kind {
	case session.EventMessage:
		return l.handleMessage(ev.Message)
	case session.EventDisconnected:
		return true, fmt.Errorf("game: peer disconnected")
	case session.EventError:
		return false, nil // transient; the game loop doesn't treat a single error as fatal
	}
	return false, nil
}

func (l *Loop) handleMessage(msg protocol.NetworkMessage) (done bool, err error) {
	switch {
	case msg.IsInput():
		l.applyRemoteInput(msg.Input)
	case msg.IsBallSync() && l.role == RoleClient:
		ApplyBallSync(l.state, msg.Sequence, msg.X, msg.Y, msg.VX, msg.VY)
	case msg.IsScoreSync() && l.role == RoleClient:
		ApplyScoreSync(l.state, msg.LeftScore, msg.RightScore, msg.GameOver)
	case msg.IsPing():
		l.net.Send(HandlePing(msg))
	case msg.IsPong():
		if rtt, ok := l.ping.HandlePong(time.Now(), msg.TimestampMS); ok {
			l.net.Stats.LastRTT.Store(int64(rtt))
		}
	case msg.IsRematchRequest():
		toSend, reset := l.rematch.HandleRematchRequest()
		for _, m := range toSend {
			l.net.Send(m)
		}
		if reset {
			l.resetMatch()
		}
	case msg.IsRematchConfirm():
		if l.rematch.HandleRematchConfirm() {
			l.resetMatch()
		}
	case msg.IsQuitRequest():
		return true, nil
	}
	return false, nil
}

func (l *Loop) applyRemoteInput(action protocol.InputAction) {
	remote := l.state.Paddle(l.remoteSide())
	switch action {
	case protocol.ActionLeftPaddleUp, protocol.ActionRightPaddleUp:
		MovePaddle(remote, true, l.cfg)
	case protocol.ActionLeftPaddleDown, protocol.ActionRightPaddleDown:
		MovePaddle(remote, false, l.cfg)
	}
}

func (l *Loop) resetMatch() {
	l.state = New(l.cfg)
}
