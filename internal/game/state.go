// Package game implements host-authoritative Pong simulation and the
// client-side dead-reckoning/correction scheme that keeps both peers
// showing the same ball without re-sending full state every frame.
package game

import "github.com/holloway-fold/pongmesh/internal/gameconfig"

// Side identifies which paddle a message or input action refers to.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// Ball is the single moving object both peers track.
type Ball struct {
	X, Y   float64
	VX, VY float64
}

// Paddle is a vertical position; width and margin are the fixed package
// constants PaddleWidth and PaddleMargin and don't need to travel with the
// struct.
type Paddle struct {
	Y float64
}

// State is the complete, replicated game state. The host mutates it via
// Step; the client mutates it via Extrapolate and ApplyBallSync/
// ApplyScoreSync.
type State struct {
	Ball        Ball
	LeftPaddle  Paddle
	RightPaddle Paddle

	LeftScore  uint8
	RightScore uint8
	GameOver   bool

	ServeCount uint64
	FrameCount uint64

	// Sequence means different things to each side: on the host it is the
	// monotonically increasing BallSync counter (NextSequence), on the
	// client it is the highest BallSync sequence applied so far
	// (ApplyBallSync).
	Sequence uint64
}

// Role reports which side of the simulation is authoritative for a
// Runtime; kept on the caller's side rather than in State, since State
// itself is symmetric data both peers hold a copy of.
type Role int

const (
	RoleHost Role = iota
	RoleClient
)

// New returns a freshly served game, paddles centered, per cfg's virtual
// arena size.
func New(cfg gameconfig.Config) *State {
	s := &State{
		LeftPaddle:  Paddle{Y: cfg.Physics.VirtualHeight / 2},
		RightPaddle: Paddle{Y: cfg.Physics.VirtualHeight / 2},
	}
	ResetBall(s, cfg)
	return s
}

// Paddle returns the paddle on side.
func (s *State) Paddle(side Side) *Paddle {
	if side == SideLeft {
		return &s.LeftPaddle
	}
	return &s.RightPaddle
}
