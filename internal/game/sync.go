package game

import "math"

// PositionSnapThreshold and PositionCorrectionAlpha govern how the client
// reconciles a BallSync against its own dead-reckoned ball position:
// beyond the threshold the error is assumed to be a genuine desync (a
// missed event, a dropped packet) and corrected instantly; below it, the
// client nudges toward the host's position over several frames so a
// routine 20Hz backup sync never produces a visible jump.
const (
	PositionSnapThreshold  = 50.0
	PositionCorrectionAlpha = 0.25
)

// Extrapolate advances the client's local copy of the ball by dt using its
// last known velocity. The client never runs collision detection; this is
// pure dead reckoning between BallSync corrections.
func Extrapolate(s *State, dt float64) {
	if s.GameOver {
		return
	}
	s.Ball.X += s.Ball.VX * dt
	s.Ball.Y += s.Ball.VY * dt
}

// ApplyBallSync reconciles an incoming host position against the client's
// extrapolated one. seq must be strictly greater than the highest sequence
// already applied — out-of-order deliveries and duplicates are dropped
// silently, which keeps the client immune to UDP-style reordering over the
// unordered, partially-reliable data channel. A NaN in any of x, y, vx, vy
// is also dropped outright (spec.md §8: NaN decodes bit-for-bit but is
// invalid to the sync engine) rather than let it corrupt GameState.Ball via
// the correction branch below. Velocity is always adopted outright, since
// dead reckoning only needs a correct starting slope, not a smoothed one.
// Returns whether the sync was applied.
func ApplyBallSync(s *State, seq uint64, x, y, vx, vy float64) bool {
	if seq <= s.Sequence {
		return false
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(vx) || math.IsNaN(vy) {
		return false
	}
	s.Sequence = seq

	dx := x - s.Ball.X
	dy := y - s.Ball.Y
	if math.Hypot(dx, dy) > PositionSnapThreshold {
		s.Ball.X, s.Ball.Y = x, y
	} else {
		s.Ball.X += dx * PositionCorrectionAlpha
		s.Ball.Y += dy * PositionCorrectionAlpha
	}

	s.Ball.VX, s.Ball.VY = vx, vy
	return true
}

// ApplyScoreSync overwrites the client's scoreboard with the host's.
func ApplyScoreSync(s *State, left, right uint8, gameOver bool) {
	s.LeftScore = left
	s.RightScore = right
	s.GameOver = gameOver
}

// ShouldSyncBall reports whether the host should emit a BallSync this
// frame: either a collision just happened (the client needs the bounce
// immediately, not up to BackupSyncInterval frames later) or this is a
// periodic backup sync that keeps a quiet stretch of play from drifting.
func ShouldSyncBall(collided bool, frameCount uint64, backupSyncInterval int) bool {
	return collided || frameCount%uint64(backupSyncInterval) == 0
}

// NextSequence increments and returns the host's outgoing BallSync
// sequence counter.
func NextSequence(s *State) uint64 {
	s.Sequence++
	return s.Sequence
}
