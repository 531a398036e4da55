package signaling

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/holloway-fold/pongmesh/internal/protocol"
)

func startTestServer(t *testing.T) (wsURL string, closeFn func()) {
	t.Helper()
	hub := NewHub()
	srv := NewServer(hub)
	ts := httptest.NewServer(srv)
	return "ws" + strings.TrimPrefix(ts.URL, "http"), ts.Close
}

func TestServerRegisterAndListPeers(t *testing.T) {
	url, closeSrv := startTestServer(t)
	defer closeSrv()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	host, err := Dial(ctx, url, "abcd")
	if err != nil {
		t.Fatalf("Dial host: %v", err)
	}
	defer host.Close()

	joiner, err := Dial(ctx, url, "wxyz")
	if err != nil {
		t.Fatalf("Dial joiner: %v", err)
	}
	defer joiner.Close()

	if err := host.RequestPeerList(); err != nil {
		t.Fatalf("RequestPeerList: %v", err)
	}

	select {
	case msg := <-host.Messages():
		if msg.Type != protocol.SignalPeerList {
			t.Fatalf("expected peer_list, got %s", msg.Type)
		}
		if len(msg.Peers) != 1 || msg.Peers[0] != "wxyz" {
			t.Fatalf("expected [wxyz], got %v", msg.Peers)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for peer_list")
	}
}

func TestServerRelaysOfferAndAnswer(t *testing.T) {
	url, closeSrv := startTestServer(t)
	defer closeSrv()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	host, err := Dial(ctx, url, "abcd")
	if err != nil {
		t.Fatalf("Dial host: %v", err)
	}
	defer host.Close()

	joiner, err := Dial(ctx, url, "wxyz")
	if err != nil {
		t.Fatalf("Dial joiner: %v", err)
	}
	defer joiner.Close()

	if err := host.SendOffer("wxyz", "v=0 offer"); err != nil {
		t.Fatalf("SendOffer: %v", err)
	}

	select {
	case msg := <-joiner.Messages():
		if msg.Type != protocol.SignalOffer || msg.From != "abcd" || msg.SDP != "v=0 offer" {
			t.Fatalf("unexpected offer delivery: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for offer")
	}

	if err := joiner.SendAnswer("abcd", "v=0 answer"); err != nil {
		t.Fatalf("SendAnswer: %v", err)
	}

	select {
	case msg := <-host.Messages():
		if msg.Type != protocol.SignalAnswer || msg.From != "wxyz" || msg.SDP != "v=0 answer" {
			t.Fatalf("unexpected answer delivery: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for answer")
	}

	if err := joiner.SendICECandidate("candidate:1 1 UDP ..."); err != nil {
		t.Fatalf("SendICECandidate: %v", err)
	}

	select {
	case msg := <-host.Messages():
		if msg.Type != protocol.SignalICECandidate || msg.From != "wxyz" {
			t.Fatalf("unexpected ice_candidate delivery: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ice_candidate")
	}
}

func TestServerRejectsDuplicatePeerID(t *testing.T) {
	url, closeSrv := startTestServer(t)
	defer closeSrv()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := Dial(ctx, url, "abcd")
	if err != nil {
		t.Fatalf("Dial first: %v", err)
	}
	defer first.Close()

	if _, err := Dial(ctx, url, "abcd"); err == nil {
		t.Fatal("expected a second registration with the same peer id to be rejected")
	}
}
