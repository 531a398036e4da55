package game

import (
	"testing"
	"time"
)

func TestRematchBothSidesLocalFirst(t *testing.T) {
	r := &RematchCoordinator{}
	toSend, reset := r.LocalRequest()
	if reset {
		t.Fatal("expected no reset until the peer also wants a rematch")
	}
	if len(toSend) != 1 {
		t.Fatalf("expected exactly a RematchRequest, got %d messages", len(toSend))
	}

	toSend, reset = r.HandleRematchRequest()
	if !reset {
		t.Fatal("expected a reset once both sides want a rematch")
	}
	if len(toSend) != 1 || !toSend[0].IsRematchConfirm() {
		t.Fatalf("expected a RematchConfirm to be sent, got %+v", toSend)
	}
}

func TestRematchPeerFirst(t *testing.T) {
	r := &RematchCoordinator{}
	toSend, reset := r.HandleRematchRequest()
	if reset {
		t.Fatal("expected no reset until the local side also wants a rematch")
	}
	if len(toSend) != 0 {
		t.Fatalf("expected no messages yet, got %+v", toSend)
	}

	toSend, reset = r.LocalRequest()
	if !reset {
		t.Fatal("expected a reset once the local side also wants a rematch")
	}
	if len(toSend) != 2 || !toSend[1].IsRematchConfirm() {
		t.Fatalf("expected RematchRequest+RematchConfirm, got %+v", toSend)
	}
}

func TestRematchConfirmAlwaysResets(t *testing.T) {
	r := &RematchCoordinator{}
	r.LocalRequest()
	if !r.HandleRematchConfirm() {
		t.Fatal("expected RematchConfirm to always trigger a reset")
	}
	if r.localWants || r.peerWants {
		t.Error("expected flags to be cleared after a confirm")
	}
}

func TestPingTrackerRejectsMismatchedPong(t *testing.T) {
	start := time.Now()
	p := NewPingTracker(start)
	ping, ok := p.Tick(start)
	if !ok {
		t.Fatal("expected the first tick to send a ping")
	}
	if _, ok := p.HandlePong(start, ping.TimestampMS+1); ok {
		t.Error("expected a mismatched pong timestamp to be rejected")
	}
	if _, ok := p.HandlePong(start, ping.TimestampMS); !ok {
		t.Error("expected the matching pong to be accepted")
	}
}

func TestPingTrackerThrottlesToOncePerInterval(t *testing.T) {
	start := time.Now()
	p := NewPingTracker(start)
	if _, ok := p.Tick(start); !ok {
		t.Fatal("expected the first tick to send")
	}
	if _, ok := p.Tick(start.Add(100 * time.Millisecond)); ok {
		t.Error("expected a tick within the interval to be suppressed")
	}
	if _, ok := p.Tick(start.Add(1100 * time.Millisecond)); !ok {
		t.Error("expected a tick past the interval to send again")
	}
}
