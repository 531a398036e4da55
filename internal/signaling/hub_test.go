package signaling

import (
	"testing"

	"github.com/holloway-fold/pongmesh/internal/protocol"
)

func TestHubRegisterDuplicateRejected(t *testing.T) {
	h := NewHub()
	_, err := h.Register("abcd", func(protocol.SignalMessage) error { return nil })
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := h.Register("abcd", func(protocol.SignalMessage) error { return nil }); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestHubListPeersExcludesSelf(t *testing.T) {
	h := NewHub()
	noop := func(protocol.SignalMessage) error { return nil }
	h.Register("abcd", noop)
	h.Register("wxyz", noop)

	peers := h.ListPeers("abcd")
	if len(peers) != 1 || peers[0] != "wxyz" {
		t.Fatalf("expected [wxyz], got %v", peers)
	}
}

func TestHubRouteOfferEstablishesPairing(t *testing.T) {
	h := NewHub()
	var received protocol.SignalMessage
	h.Register("abcd", func(protocol.SignalMessage) error { return nil })
	h.Register("wxyz", func(m protocol.SignalMessage) error { received = m; return nil })

	if err := h.Route("abcd", protocol.Offer("wxyz", "abcd", "v=0...")); err != nil {
		t.Fatalf("Route offer: %v", err)
	}
	if received.Type != protocol.SignalOffer || received.From != "abcd" {
		t.Fatalf("wxyz did not receive the offer: %+v", received)
	}

	// Once paired, an ice_candidate targeting "remote" should resolve
	// through the pairing established by the offer above.
	if err := h.Route("wxyz", protocol.ICECandidate(protocol.RemoteTarget, "wxyz", "candidate:1")); err != nil {
		t.Fatalf("Route ice_candidate: %v", err)
	}
}

func TestHubRouteUnknownPeerErrors(t *testing.T) {
	h := NewHub()
	h.Register("abcd", func(protocol.SignalMessage) error { return nil })
	if err := h.Route("abcd", protocol.Offer("ghost", "abcd", "v=0...")); err == nil {
		t.Fatal("expected routing to an unregistered peer to fail")
	}
}

func TestHubRouteRemoteWithoutPairingErrors(t *testing.T) {
	h := NewHub()
	h.Register("abcd", func(protocol.SignalMessage) error { return nil })
	if err := h.Route("abcd", protocol.ICECandidate(protocol.RemoteTarget, "abcd", "candidate:1")); err == nil {
		t.Fatal("expected ice_candidate with no prior pairing to fail")
	}
}

func TestHubUnregisterClearsPairing(t *testing.T) {
	h := NewHub()
	noop := func(protocol.SignalMessage) error { return nil }
	unregA, _ := h.Register("abcd", noop)
	h.Register("wxyz", noop)
	h.Route("abcd", protocol.Offer("wxyz", "abcd", "v=0..."))

	unregA()
	if err := h.Route("wxyz", protocol.ICECandidate(protocol.RemoteTarget, "wxyz", "candidate:1")); err == nil {
		t.Fatal("expected pairing to be cleared once a paired peer unregisters")
	}
}
