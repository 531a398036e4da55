// Package signaling implements the rendezvous service that pairs peers and
// relays SDP/ICE signaling messages so they can establish a direct
// WebRTC connection. It never touches game traffic itself.
package signaling

import (
	"fmt"
	"sync"

	"github.com/holloway-fold/pongmesh/internal/protocol"
)

// outbound is how the hub delivers a message to a registered peer without
// knowing anything about the transport (websocket, in-process, or a test
// double) that carries it.
type outbound func(protocol.SignalMessage) error

// Hub tracks registered peers and the pairings formed once an offer/answer
// exchange names a specific counterpart. It is the in-process analogue of
// the teacher's SignalServer session table, reshaped from HTTP-polled
// per-session queues to a live per-peer send channel.
type Hub struct {
	mu       sync.RWMutex
	peers    map[string]outbound
	pairings map[string]string
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		peers:    make(map[string]outbound),
		pairings: make(map[string]string),
	}
}

// Register adds peerID to the hub, bound to send. It returns an error if
// peerID is already registered. The caller must call the returned
// unregister func when the underlying connection closes.
func (h *Hub) Register(peerID string, send outbound) (unregister func(), err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.peers[peerID]; exists {
		return nil, fmt.Errorf("signaling: peer id %q already registered", peerID)
	}
	h.peers[peerID] = send

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.peers, peerID)
		if partner, ok := h.pairings[peerID]; ok {
			delete(h.pairings, peerID)
			delete(h.pairings, partner)
		}
	}, nil
}

// ListPeers returns every registered peer ID other than excluding, in no
// particular order.
func (h *Hub) ListPeers(excluding string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	peers := make([]string, 0, len(h.peers))
	for id := range h.peers {
		if id != excluding {
			peers = append(peers, id)
		}
	}
	return peers
}

// Route delivers msg, sent by from, to its intended recipient.
//
// offer/answer name an explicit target and establish a bidirectional
// pairing between from and target (spec.md §4.2); the pairing is recorded
// before the target is looked up, so it is kept even when target is not
// registered and delivery fails. ice_candidate
// may instead target protocol.RemoteTarget, which Route resolves through the
// existing pairing — this is what lets either side fire ICE candidates
// without re-stating the peer ID once negotiation is underway.
func (h *Hub) Route(from string, msg protocol.SignalMessage) error {
	h.mu.Lock()

	target := msg.Target
	switch msg.Type {
	case protocol.SignalOffer, protocol.SignalAnswer:
		h.pairings[from] = target
		h.pairings[target] = from
	case protocol.SignalICECandidate:
		if target == protocol.RemoteTarget {
			partner, ok := h.pairings[from]
			if !ok {
				h.mu.Unlock()
				return fmt.Errorf("signaling: %q has no paired peer yet", from)
			}
			target = partner
		}
	default:
		h.mu.Unlock()
		return fmt.Errorf("signaling: %q is not a routable message type", msg.Type)
	}

	send, ok := h.peers[target]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("signaling: unknown peer %q", target)
	}

	msg.From = from
	msg.Target = target
	return send(msg)
}
