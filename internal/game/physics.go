package game

import (
	"math"

	"github.com/holloway-fold/pongmesh/internal/gameconfig"
)

// Fixed geometric constants that never vary by config, grounded on
// original_source/src/game/physics.rs.
const (
	PaddleMargin = 18.0 // distance from the arena edge to each paddle
	PaddleWidth  = 20.0
	BallSize     = 20.0
	BallRadius   = BallSize / 2
)

// maxBounceAngle is the steepest angle (radians) a paddle hit can send the
// ball at, reached when the ball strikes the very top or bottom edge of
// the paddle.
const maxBounceAngle = math.Pi / 3 // 60 degrees

// MovePaddle steps p by cfg.Physics.PaddleTapDistance, up if up is true and
// down otherwise, clamped to stay fully within the virtual arena. Movement
// is a fixed distance per call rather than scaled by dt: spec.md §4.4.1
// moves paddles by a fixed tap_distance per input event, not by a
// continuous speed, so each Input/tick is one discrete step.
func MovePaddle(p *Paddle, up bool, cfg gameconfig.Config) {
	delta := cfg.Physics.PaddleTapDistance
	if up {
		delta = -delta
	}
	p.Y += delta

	half := cfg.Physics.PaddleHeight / 2
	if p.Y < half {
		p.Y = half
	}
	if p.Y > cfg.Physics.VirtualHeight-half {
		p.Y = cfg.Physics.VirtualHeight - half
	}
}

// Events reports what happened during a single physics Step, driving the
// host's BallSync/ScoreSync emission policy in sync.go.
type Events struct {
	Collided     bool // wall or paddle bounce occurred
	ScoreChanged bool
}

// ResetBall centers the ball and gives it an initial velocity toward
// whichever side serves next, per the alternating-pairs serve pattern:
// L,R,R,L,L,R,R,L,L,R,... for ServeCount 0,1,2,...
//
// serve_to_left = true when ServeCount == 0, otherwise when
// ((ServeCount-1)/2) % 2 == 1 (integer division), matching
// original_source/src/game/state.rs::reset_ball exactly.
func ResetBall(s *State, cfg gameconfig.Config) {
	s.Ball = Ball{
		X: cfg.Physics.VirtualWidth / 2,
		Y: cfg.Physics.VirtualHeight / 2,
	}

	serveToLeft := serveDirectionIsLeft(s.ServeCount)
	speed := cfg.Physics.BallInitialSpeed
	if serveToLeft {
		s.Ball.VX = -speed
	} else {
		s.Ball.VX = speed
	}
	s.Ball.VY = 0

	s.ServeCount++
}

func serveDirectionIsLeft(serveCount uint64) bool {
	if serveCount == 0 {
		return true
	}
	return ((serveCount-1)/2)%2 == 1
}

// Step advances the simulation by dt seconds. It is host-only: the client
// never calls this, relying instead on Extrapolate plus BallSync/ScoreSync
// corrections from the host.
func Step(s *State, cfg gameconfig.Config, dt float64) Events {
	if s.GameOver {
		return Events{}
	}

	var ev Events

	s.Ball.X += s.Ball.VX * dt
	s.Ball.Y += s.Ball.VY * dt

	if bounceOffWalls(s, cfg) {
		ev.Collided = true
	}
	if bounceOffPaddles(s, cfg) {
		ev.Collided = true
	}

	if scored := checkGoal(s, cfg); scored {
		ev.ScoreChanged = true
		if s.LeftScore >= cfg.Physics.WinningScore || s.RightScore >= cfg.Physics.WinningScore {
			s.GameOver = true
		} else {
			ResetBall(s, cfg)
		}
	}

	return ev
}

// bounceOffWalls reflects the ball off the top/bottom boundary, clamping
// its position to the boundary and flipping VY to the correct-sign
// absolute value so a grazing hit can never leave the ball traveling the
// wrong way twice.
func bounceOffWalls(s *State, cfg gameconfig.Config) bool {
	top := BallRadius
	bottom := cfg.Physics.VirtualHeight - BallRadius

	switch {
	case s.Ball.Y <= top:
		s.Ball.Y = top
		s.Ball.VY = math.Abs(s.Ball.VY)
		return true
	case s.Ball.Y >= bottom:
		s.Ball.Y = bottom
		s.Ball.VY = -math.Abs(s.Ball.VY)
		return true
	}
	return false
}

// bounceOffPaddles reflects the ball off either paddle face. The bounce
// angle is linear in where along the paddle height the ball struck,
// ranging over ±maxBounceAngle, and each bounce scales the ball's speed by
// BallSpeedMultiplier.
func bounceOffPaddles(s *State, cfg gameconfig.Config) bool {
	leftFace := PaddleMargin + PaddleWidth
	if s.Ball.VX < 0 && s.Ball.X-BallRadius <= leftFace && s.Ball.X-BallRadius >= PaddleMargin {
		if hit, ok := paddleHit(s.Ball.Y, s.LeftPaddle.Y, cfg.Physics.PaddleHeight); ok {
			applyBounce(s, cfg, hit, +1)
			s.Ball.X = leftFace + BallRadius
			return true
		}
	}

	rightFace := cfg.Physics.VirtualWidth - PaddleMargin - PaddleWidth
	if s.Ball.VX > 0 && s.Ball.X+BallRadius >= rightFace && s.Ball.X+BallRadius <= cfg.Physics.VirtualWidth-PaddleMargin {
		if hit, ok := paddleHit(s.Ball.Y, s.RightPaddle.Y, cfg.Physics.PaddleHeight); ok {
			applyBounce(s, cfg, hit, -1)
			s.Ball.X = rightFace - BallRadius
			return true
		}
	}

	return false
}

// paddleHit reports whether ballY is within the paddle's vertical span
// centered at paddleY, and where (0 = top edge, 1 = bottom edge).
func paddleHit(ballY, paddleY, paddleHeight float64) (hitPos float64, ok bool) {
	top := paddleY - paddleHeight/2
	bottom := paddleY + paddleHeight/2
	if ballY < top-BallRadius || ballY > bottom+BallRadius {
		return 0, false
	}
	hitPos = (ballY - top) / paddleHeight
	if hitPos < 0 {
		hitPos = 0
	}
	if hitPos > 1 {
		hitPos = 1
	}
	return hitPos, true
}

// applyBounce sets the ball's post-collision velocity: horizontal
// direction sign points away from the paddle (away = +1 for the left
// paddle, -1 for the right), angled by hitPos, at the previous speed times
// the config's speed multiplier.
func applyBounce(s *State, cfg gameconfig.Config, hitPos float64, away float64) {
	prevSpeed := math.Hypot(s.Ball.VX, s.Ball.VY)
	newSpeed := prevSpeed * cfg.Physics.BallSpeedMultiplier
	angle := (hitPos - 0.5) * 2 * maxBounceAngle

	s.Ball.VX = away * newSpeed * math.Cos(angle)
	s.Ball.VY = newSpeed * math.Sin(angle)
}

// checkGoal awards a point when the ball passes fully off either edge of
// the arena.
func checkGoal(s *State, cfg gameconfig.Config) bool {
	switch {
	case s.Ball.X < -BallRadius:
		s.RightScore++
		return true
	case s.Ball.X > cfg.Physics.VirtualWidth+BallRadius:
		s.LeftScore++
		return true
	}
	return false
}
