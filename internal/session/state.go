// Package session orchestrates the handshake that turns a pair of peer IDs
// into an open WebRTC data channel: signaling registration, SDP offer/
// answer exchange, ICE candidate trickling, and the resulting connection.
package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is a step in the connection handshake, adapted from the teacher's
// bridge.State enum and renamed to the stages spec.md §4.3.3 actually
// walks through instead of the teacher's local-game-probe/relay stages.
type State int

const (
	StateRegistering State = iota
	StateWaitingForPeer
	StateSendingOffer
	StateSDPNegotiating
	StateICEChecking
	StateConnected
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateRegistering:
		return "REGISTERING"
	case StateWaitingForPeer:
		return "WAITING_FOR_PEER"
	case StateSendingOffer:
		return "SENDING_OFFER"
	case StateSDPNegotiating:
		return "SDP_NEGOTIATING"
	case StateICEChecking:
		return "ICE_CHECKING"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Stats tracks byte counters and timing for the active session, mirroring
// the teacher's bridge.Stats. LastRTT is set by the game loop whenever a
// Pong matches its outstanding Ping, giving the surrounding UI the
// observable round-trip estimate spec.md's network-sync section requires
// without making internal/session depend on internal/game's PingTracker.
type Stats struct {
	BytesIn   atomic.Int64
	BytesOut  atomic.Int64
	LastRTT   atomic.Int64 // nanoseconds; 0 until the first Pong arrives
	StartTime time.Time
	LastError string
}

// stateHolder is the shared state-machine/callback plumbing both the host
// and joiner runtimes embed, grounded on bridge.Bridge's
// mu+state+onStateChange discipline.
type stateHolder struct {
	mu            sync.RWMutex
	state         State
	onStateChange func(State)
}

func (h *stateHolder) SetStateChangeCallback(cb func(State)) {
	h.mu.Lock()
	h.onStateChange = cb
	h.mu.Unlock()
}

func (h *stateHolder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *stateHolder) setState(s State) {
	h.mu.Lock()
	prev := h.state
	h.state = s
	cb := h.onStateChange
	h.mu.Unlock()

	if prev != s && cb != nil {
		cb(s)
	}
}
