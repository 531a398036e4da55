package game

import (
	"math"
	"testing"
)

func TestApplyBallSyncSnapsOnLargeError(t *testing.T) {
	s := &State{Ball: Ball{X: 0, Y: 0}}
	applied := ApplyBallSync(s, 1, 1000, 1000, 10, 10)
	if !applied {
		t.Fatal("expected the first sync to apply")
	}
	if s.Ball.X != 1000 || s.Ball.Y != 1000 {
		t.Errorf("expected a snap to (1000,1000), got (%v,%v)", s.Ball.X, s.Ball.Y)
	}
}

func TestApplyBallSyncCorrectsGraduallyOnSmallError(t *testing.T) {
	s := &State{Ball: Ball{X: 100, Y: 100}}
	applied := ApplyBallSync(s, 1, 110, 100, 5, 0)
	if !applied {
		t.Fatal("expected the sync to apply")
	}
	wantX := 100 + (110-100)*PositionCorrectionAlpha
	if math.Abs(s.Ball.X-wantX) > 1e-9 {
		t.Errorf("expected gradual correction to %v, got %v", wantX, s.Ball.X)
	}
}

func TestApplyBallSyncAlwaysAdoptsVelocity(t *testing.T) {
	s := &State{Ball: Ball{X: 100, Y: 100, VX: 1, VY: 1}}
	ApplyBallSync(s, 1, 101, 100, -999, 123)
	if s.Ball.VX != -999 || s.Ball.VY != 123 {
		t.Errorf("expected velocity to be adopted outright, got (%v,%v)", s.Ball.VX, s.Ball.VY)
	}
}

func TestApplyBallSyncRejectsOutOfOrderAndDuplicateSequences(t *testing.T) {
	s := &State{}
	if !ApplyBallSync(s, 5, 1, 1, 0, 0) {
		t.Fatal("expected seq 5 to apply first")
	}
	if ApplyBallSync(s, 5, 2, 2, 0, 0) {
		t.Error("expected a duplicate sequence to be rejected")
	}
	if ApplyBallSync(s, 3, 3, 3, 0, 0) {
		t.Error("expected an out-of-order (lower) sequence to be rejected")
	}
	if s.Ball.X != 1 || s.Ball.Y != 1 {
		t.Errorf("rejected syncs should not mutate the ball, got (%v,%v)", s.Ball.X, s.Ball.Y)
	}
	if !ApplyBallSync(s, 6, 9, 9, 0, 0) {
		t.Fatal("expected seq 6 to apply after seq 5")
	}
}

func TestApplyBallSyncMonotonicUnderPermutation(t *testing.T) {
	s := &State{}
	order := []uint64{1, 4, 2, 7, 6, 3, 9, 5, 8}
	var highestApplied uint64
	for _, seq := range order {
		applied := ApplyBallSync(s, seq, float64(seq), 0, 0, 0)
		if applied {
			if seq <= highestApplied {
				t.Fatalf("applied out-of-order sequence %d after highest %d", seq, highestApplied)
			}
			highestApplied = seq
		}
	}
	if s.Sequence != 9 {
		t.Errorf("expected final applied sequence 9, got %d", s.Sequence)
	}
}

func TestApplyBallSyncDropsNaNPosition(t *testing.T) {
	s := &State{Ball: Ball{X: 100, Y: 100, VX: 1, VY: 1}}
	if ApplyBallSync(s, 1, math.NaN(), 100, 5, 5) {
		t.Fatal("expected a NaN x to be rejected")
	}
	if s.Ball.X != 100 || s.Ball.Y != 100 || s.Ball.VX != 1 || s.Ball.VY != 1 {
		t.Errorf("a dropped NaN sync should not mutate the ball, got %+v", s.Ball)
	}
	if s.Sequence != 0 {
		t.Errorf("a dropped NaN sync should not advance Sequence, got %d", s.Sequence)
	}

	if ApplyBallSync(s, 2, 100, 100, math.NaN(), 0) {
		t.Fatal("expected a NaN vx to be rejected")
	}

	if !ApplyBallSync(s, 3, 200, 200, 10, 10) {
		t.Fatal("a valid sync after dropped NaN syncs should still apply")
	}
}

func TestShouldSyncBallOnCollisionOrBackupInterval(t *testing.T) {
	if !ShouldSyncBall(true, 1, 3) {
		t.Error("a collision should always trigger a sync")
	}
	if !ShouldSyncBall(false, 0, 3) {
		t.Error("frame 0 is a multiple of every interval")
	}
	if !ShouldSyncBall(false, 3, 3) {
		t.Error("frame 3 should trigger a backup sync with interval 3")
	}
	if ShouldSyncBall(false, 1, 3) {
		t.Error("frame 1 should not trigger a backup sync with interval 3")
	}
}
