package game

import (
	"time"

	"github.com/holloway-fold/pongmesh/internal/protocol"
)

// pingInterval is fixed by spec.md §4.4.5 ("every 1 s"); unlike the
// heartbeat interval, the spec gives players no config knob for it.
const pingInterval = 1000 * time.Millisecond

// PingTracker sends a Ping once per second and measures round-trip time
// from the matching Pong, ignoring any Pong that doesn't echo the
// outstanding timestamp (a late reply to an earlier ping that a newer one
// has since replaced).
type PingTracker struct {
	startedAt   time.Time
	lastSentAt  time.Time
	outstanding bool
	sentAt      time.Time
	timestampMs uint64
}

// NewPingTracker starts the elapsed-time clock pings are timestamped
// against.
func NewPingTracker(startedAt time.Time) *PingTracker {
	return &PingTracker{startedAt: startedAt}
}

// Tick returns a Ping message to send if pingInterval has elapsed since the
// last one.
func (p *PingTracker) Tick(now time.Time) (protocol.NetworkMessage, bool) {
	if !p.lastSentAt.IsZero() && now.Sub(p.lastSentAt) < pingInterval {
		return protocol.NetworkMessage{}, false
	}
	p.lastSentAt = now
	p.sentAt = now
	p.timestampMs = uint64(now.Sub(p.startedAt).Milliseconds())
	p.outstanding = true
	return protocol.MessagePing(p.timestampMs), true
}

// HandlePong reports the round-trip time if timestampMs matches the
// outstanding ping and clears it; a non-matching reply is ignored and leaves
// the outstanding ping in place.
func (p *PingTracker) HandlePong(now time.Time, timestampMs uint64) (time.Duration, bool) {
	if !p.outstanding || timestampMs != p.timestampMs {
		return 0, false
	}
	p.outstanding = false
	return now.Sub(p.sentAt), true
}

// HandlePing builds the Pong reply that echoes the peer's timestamp
// verbatim.
func HandlePing(msg protocol.NetworkMessage) protocol.NetworkMessage {
	return protocol.MessagePong(msg.TimestampMS)
}

// HeartbeatTracker emits a Heartbeat on a fixed interval with a wrapping
// sequence counter, keeping traffic flowing regardless of other messages.
// The receiving loop takes no action on a Heartbeat; a dead connection is
// detected through the WebRTC connection-state callback, not through missing
// heartbeats.
type HeartbeatTracker struct {
	interval   time.Duration
	lastSentAt time.Time
	sequence   uint64
}

// NewHeartbeatTracker builds a tracker that fires every interval, per
// gameconfig.Network.HeartbeatInterval (spec.md §6).
func NewHeartbeatTracker(interval time.Duration) *HeartbeatTracker {
	return &HeartbeatTracker{interval: interval}
}

// Tick returns a Heartbeat message to send if interval has elapsed.
func (h *HeartbeatTracker) Tick(now time.Time) (protocol.NetworkMessage, bool) {
	if !h.lastSentAt.IsZero() && now.Sub(h.lastSentAt) < h.interval {
		return protocol.NetworkMessage{}, false
	}
	h.lastSentAt = now
	h.sequence++
	return protocol.MessageHeartbeat(h.sequence), true
}

// RematchCoordinator implements the two-phase rematch handshake: both
// sides must want a rematch before either resets the game, and whichever
// side observes both flags set is responsible for sending the confirming
// message. Grounded on original_source/src/game_modes/network.rs's
// rematch-request/rematch-confirm branch.
type RematchCoordinator struct {
	localWants bool
	peerWants  bool
}

// LocalRequest is called when the local player presses rematch (only legal
// while the game is over). It always sends a RematchRequest; if the peer
// had already asked for a rematch, it also sends RematchConfirm and tells
// the caller to reset the game immediately.
func (r *RematchCoordinator) LocalRequest() (toSend []protocol.NetworkMessage, reset bool) {
	r.localWants = true
	toSend = append(toSend, protocol.MessageRematchRequest())
	if r.peerWants {
		toSend = append(toSend, protocol.MessageRematchConfirm())
		reset = true
		r.clear()
	}
	return toSend, reset
}

// HandleRematchRequest processes a RematchRequest received from the peer.
func (r *RematchCoordinator) HandleRematchRequest() (toSend []protocol.NetworkMessage, reset bool) {
	r.peerWants = true
	if r.localWants {
		toSend = append(toSend, protocol.MessageRematchConfirm())
		reset = true
		r.clear()
	}
	return toSend, reset
}

// HandleRematchConfirm processes a RematchConfirm received from the peer,
// which always triggers an immediate reset.
func (r *RematchCoordinator) HandleRematchConfirm() (reset bool) {
	r.clear()
	return true
}

func (r *RematchCoordinator) clear() {
	r.localWants = false
	r.peerWants = false
}
