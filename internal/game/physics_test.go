package game

import (
	"math"
	"testing"

	"github.com/holloway-fold/pongmesh/internal/gameconfig"
)

func TestServePatternMatchesOriginalSequence(t *testing.T) {
	want := []bool{true, false, false, true, true, false, false, true, true, false}
	for serveCount, expectLeft := range want {
		got := serveDirectionIsLeft(uint64(serveCount))
		if got != expectLeft {
			t.Errorf("serveDirectionIsLeft(%d) = %v, want %v", serveCount, got, expectLeft)
		}
	}
}

func TestResetBallIncrementsServeCountAndSetsDirection(t *testing.T) {
	cfg := gameconfig.Default()
	s := &State{}
	ResetBall(s, cfg)
	if s.ServeCount != 1 {
		t.Fatalf("expected ServeCount to advance to 1, got %d", s.ServeCount)
	}
	if s.Ball.VX >= 0 {
		t.Errorf("serve 0 should go left (negative VX), got %v", s.Ball.VX)
	}
	if s.Ball.X != cfg.Physics.VirtualWidth/2 || s.Ball.Y != cfg.Physics.VirtualHeight/2 {
		t.Errorf("ball should start centered, got (%v, %v)", s.Ball.X, s.Ball.Y)
	}
}

func TestBallStaysInBoundsAfterWallBounce(t *testing.T) {
	cfg := gameconfig.Default()
	s := New(cfg)
	s.Ball.Y = BallRadius - 5
	s.Ball.VY = -100

	bounceOffWalls(s, cfg)

	if s.Ball.Y < 0 || s.Ball.Y > cfg.Physics.VirtualHeight {
		t.Fatalf("ball left the arena vertically: %v", s.Ball.Y)
	}
	if s.Ball.VY <= 0 {
		t.Errorf("expected VY to flip positive off the top wall, got %v", s.Ball.VY)
	}
}

func TestPaddleBouncePointsAwayFromPaddle(t *testing.T) {
	cfg := gameconfig.Default()
	s := New(cfg)
	s.LeftPaddle.Y = cfg.Physics.VirtualHeight / 2
	s.Ball.X = PaddleMargin + PaddleWidth + BallRadius
	s.Ball.Y = s.LeftPaddle.Y
	s.Ball.VX = -cfg.Physics.BallInitialSpeed
	s.Ball.VY = 0

	collided := bounceOffPaddles(s, cfg)
	if !collided {
		t.Fatal("expected a left-paddle collision")
	}
	if s.Ball.VX <= 0 {
		t.Errorf("expected VX to point right (away from the left paddle), got %v", s.Ball.VX)
	}
}

func TestPaddleBounceScalesSpeedByMultiplier(t *testing.T) {
	cfg := gameconfig.Default()
	s := New(cfg)
	s.LeftPaddle.Y = cfg.Physics.VirtualHeight / 2
	s.Ball.X = PaddleMargin + PaddleWidth + BallRadius
	s.Ball.Y = s.LeftPaddle.Y
	s.Ball.VX = -cfg.Physics.BallInitialSpeed
	s.Ball.VY = 0
	prevSpeed := math.Hypot(s.Ball.VX, s.Ball.VY)

	bounceOffPaddles(s, cfg)

	newSpeed := math.Hypot(s.Ball.VX, s.Ball.VY)
	wantSpeed := prevSpeed * cfg.Physics.BallSpeedMultiplier
	if math.Abs(newSpeed-wantSpeed) > 1e-6 {
		t.Errorf("expected speed %v after bounce, got %v", wantSpeed, newSpeed)
	}
}

func TestMovePaddleStepsByFixedTapDistance(t *testing.T) {
	cfg := gameconfig.Default()
	p := &Paddle{Y: cfg.Physics.VirtualHeight / 2}

	MovePaddle(p, true, cfg)
	if want := cfg.Physics.VirtualHeight/2 - cfg.Physics.PaddleTapDistance; p.Y != want {
		t.Errorf("MovePaddle(up) = %v, want %v", p.Y, want)
	}

	MovePaddle(p, false, cfg)
	if want := cfg.Physics.VirtualHeight / 2; p.Y != want {
		t.Errorf("MovePaddle(down) after up = %v, want %v", p.Y, want)
	}
}

func TestMovePaddleClampsToArena(t *testing.T) {
	cfg := gameconfig.Default()
	p := &Paddle{Y: cfg.Physics.PaddleHeight / 2}

	MovePaddle(p, true, cfg)
	if want := cfg.Physics.PaddleHeight / 2; p.Y != want {
		t.Errorf("MovePaddle(up) at top edge = %v, want clamp to %v", p.Y, want)
	}
}

func TestScoresAreBoundedAndGameFreezesAtWinningScore(t *testing.T) {
	cfg := gameconfig.Default()
	s := New(cfg)
	s.LeftScore = cfg.Physics.WinningScore - 1
	s.Ball.X = cfg.Physics.VirtualWidth + BallRadius + 1
	s.Ball.VX = 1

	Step(s, cfg, 0)

	if !s.GameOver {
		t.Fatal("expected GameOver once a score reaches WinningScore")
	}
	if s.LeftScore != cfg.Physics.WinningScore {
		t.Errorf("expected LeftScore == WinningScore, got %d", s.LeftScore)
	}

	frozenBall := s.Ball
	Step(s, cfg, 1.0/60.0)
	if s.Ball != frozenBall {
		t.Error("expected the ball to stay frozen once the game is over")
	}
}
