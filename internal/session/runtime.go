package session

import (
	"context"
	"fmt"
	"time"

	"github.com/holloway-fold/pongmesh/internal/protocol"
	"github.com/holloway-fold/pongmesh/internal/rtc"
	"github.com/holloway-fold/pongmesh/internal/signaling"
)

// EventKind enumerates the shapes a Runtime can report on its Events
// channel. This is the Go-channel translation of the original engine's
// NetworkEvent enum (original_source/src/network/client.rs): each wire
// message becomes EventMessage carrying the decoded protocol.NetworkMessage,
// and the connection-lifecycle variants (LocalPeerIdReady, Connected,
// DataChannelOpened, Disconnected, Error) get their own kinds.
type EventKind int

const (
	EventLocalPeerIDReady EventKind = iota
	EventConnected
	EventDataChannelOpened
	EventMessage
	EventDisconnected
	EventError
)

// NetworkEvent is one notification the session runtime delivers to the
// game loop.
type NetworkEvent struct {
	Kind    EventKind
	PeerID  string
	Message protocol.NetworkMessage
	Err     error
}

// Runtime owns the signaling connection and the WebRTC engine for one
// match and drives the handshake described in spec.md §4.3.3. Once
// Events reports EventDataChannelOpened, Send/Events are the game loop's
// entire interface to the network: everything about signaling and ICE
// has already happened.
type Runtime struct {
	stateHolder
	Stats

	PeerID       string
	RemotePeerID string

	signal *signaling.Client
	engine *rtc.Engine

	Events chan NetworkEvent

	sdpReady chan protocol.SignalMessage

	// connectionDeadline is when the handshake gives up, per spec.md §5's
	// configurable (default 300s) connection timeout. It is counted from
	// the end of registration and bounds the SDP exchange and the wait for
	// the peer connection to reach Connected; registration itself and the
	// wait for the data channel to open are not bounded by it. Zero means
	// no deadline.
	connectionDeadline time.Time
}

// Host dials the signaling server, registers as peerID, and sends an offer
// to targetPeerID straight away; it does not wait for that peer to register
// first. targetPeerID is the joiner's ID, obtained out of band (spec.md's
// pairing model: peer IDs are exchanged by the players themselves, e.g.
// read aloud, not discovered automatically). connectionTimeout bounds the
// handshake from the end of registration until the peer connection reaches
// Connected (spec.md §5, gameconfig.Network.ConnectionTimeout); on expiry
// the runtime enters StateError and emits EventError.
func Host(ctx context.Context, signalingURL, peerID, targetPeerID string, allowedIfaces []string, connectionTimeout time.Duration) (*Runtime, error) {
	rt, err := dial(ctx, signalingURL, peerID, allowedIfaces, connectionTimeout)
	if err != nil {
		return nil, err
	}
	rt.RemotePeerID = targetPeerID

	ctx, cancel := rt.withDeadline(ctx)
	go func() { defer cancel(); rt.runHost(ctx) }()
	return rt, nil
}

// Join dials the signaling server, registers as peerID, and waits for an
// incoming offer from any peer. connectionTimeout bounds the handshake the
// same way it does for Host.
func Join(ctx context.Context, signalingURL, peerID string, allowedIfaces []string, connectionTimeout time.Duration) (*Runtime, error) {
	rt, err := dial(ctx, signalingURL, peerID, allowedIfaces, connectionTimeout)
	if err != nil {
		return nil, err
	}

	ctx, cancel := rt.withDeadline(ctx)
	go func() { defer cancel(); rt.runJoin(ctx) }()
	return rt, nil
}

func dial(ctx context.Context, signalingURL, peerID string, allowedIfaces []string, connectionTimeout time.Duration) (*Runtime, error) {
	client, err := signaling.Dial(ctx, signalingURL, peerID)
	if err != nil {
		return nil, err
	}

	engine, err := rtc.NewEngine(allowedIfaces)
	if err != nil {
		client.Close()
		return nil, err
	}

	rt := &Runtime{
		PeerID:   peerID,
		signal:   client,
		engine:   engine,
		Events:   make(chan NetworkEvent, 64),
		sdpReady: make(chan protocol.SignalMessage, 1),
	}
	rt.Stats.StartTime = time.Now()
	if connectionTimeout > 0 {
		rt.connectionDeadline = rt.Stats.StartTime.Add(connectionTimeout)
	}
	rt.setState(StateWaitingForPeer)
	rt.emit(NetworkEvent{Kind: EventLocalPeerIDReady, PeerID: peerID})

	go rt.pumpSignal()
	go rt.pumpEngineEvents()

	return rt, nil
}

// withDeadline wraps ctx with rt.connectionDeadline, if one was configured.
func (rt *Runtime) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if rt.connectionDeadline.IsZero() {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, rt.connectionDeadline)
}

func (rt *Runtime) runHost(ctx context.Context) {
	rt.setState(StateSendingOffer)
	offer, err := rt.engine.CreateOffer()
	if err != nil {
		rt.fail(fmt.Errorf("session: create offer: %w", err))
		return
	}
	if err := rt.signal.SendOffer(rt.RemotePeerID, offer); err != nil {
		rt.fail(fmt.Errorf("session: send offer: %w", err))
		return
	}

	rt.setState(StateSDPNegotiating)
	answer, err := rt.waitSDP(ctx, protocol.SignalAnswer)
	if err != nil {
		rt.fail(err)
		return
	}
	rt.RemotePeerID = answer.From
	if err := rt.engine.HandleAnswer(answer.SDP); err != nil {
		rt.fail(fmt.Errorf("session: handle answer: %w", err))
		return
	}

	rt.waitICE(ctx)
}

func (rt *Runtime) runJoin(ctx context.Context) {
	offer, err := rt.waitSDP(ctx, protocol.SignalOffer)
	if err != nil {
		rt.fail(err)
		return
	}
	rt.RemotePeerID = offer.From

	rt.setState(StateSDPNegotiating)
	answer, err := rt.engine.HandleOffer(offer.SDP)
	if err != nil {
		rt.fail(fmt.Errorf("session: handle offer: %w", err))
		return
	}
	if err := rt.signal.SendAnswer(rt.RemotePeerID, answer); err != nil {
		rt.fail(fmt.Errorf("session: send answer: %w", err))
		return
	}

	rt.waitICE(ctx)
}

func (rt *Runtime) waitSDP(ctx context.Context, want protocol.SignalType) (protocol.SignalMessage, error) {
	select {
	case msg := <-rt.sdpReady:
		if msg.Type != want {
			return protocol.SignalMessage{}, fmt.Errorf("session: expected %s, got %s", want, msg.Type)
		}
		return msg, nil
	case <-ctx.Done():
		return protocol.SignalMessage{}, ctx.Err()
	}
}

// defaultICETimeout bounds ICE connection establishment when the caller
// configured no overall connection deadline at all.
const defaultICETimeout = 5 * time.Minute

func (rt *Runtime) waitICE(ctx context.Context) {
	rt.setState(StateICEChecking)
	timeout := defaultICETimeout
	if !rt.connectionDeadline.IsZero() {
		timeout = time.Until(rt.connectionDeadline)
	}
	if err := rt.engine.WaitConnected(timeout); err != nil {
		rt.fail(err)
		return
	}
	rt.setState(StateConnected)
}

// pumpSignal forwards signaling traffic once the handshake is underway:
// offer/answer messages unblock waitSDP, ice_candidate messages are applied
// directly to the engine, and a server-side error is reported as
// EventError; it does not close the session or stop the handshake.
func (rt *Runtime) pumpSignal() {
	for msg := range rt.signal.Messages() {
		switch msg.Type {
		case protocol.SignalOffer, protocol.SignalAnswer:
			rt.sdpReady <- msg
		case protocol.SignalICECandidate:
			if err := rt.engine.AddICECandidate(msg.Candidate); err != nil {
				rt.emit(NetworkEvent{Kind: EventError, Err: err})
			}
		case protocol.SignalError:
			rt.emit(NetworkEvent{Kind: EventError, Err: fmt.Errorf("signaling: %s", msg.Message)})
		}
	}
	if err := <-rt.signal.Err(); err != nil {
		rt.emit(NetworkEvent{Kind: EventDisconnected, Err: err})
	}
}

// pumpEngineEvents forwards WebRTC events: outbound ICE candidates go back
// to the signaling server, data channel messages are decoded into
// NetworkEvents for the game loop.
func (rt *Runtime) pumpEngineEvents() {
	for ev := range rt.engine.Events {
		switch ev.Kind {
		case rtc.EventICECandidate:
			rt.signal.SendICECandidate(ev.Candidate)
		case rtc.EventConnected:
			rt.emit(NetworkEvent{Kind: EventConnected, PeerID: rt.RemotePeerID})
		case rtc.EventDataChannelOpen:
			rt.emit(NetworkEvent{Kind: EventDataChannelOpened})
		case rtc.EventMessage:
			msg, err := protocol.DecodeWire(ev.Data)
			if err != nil {
				rt.emit(NetworkEvent{Kind: EventError, Err: err})
				continue
			}
			rt.Stats.BytesIn.Add(int64(len(ev.Data)))
			rt.emit(NetworkEvent{Kind: EventMessage, Message: msg})
		case rtc.EventDisconnected:
			rt.setState(StateClosed)
			rt.emit(NetworkEvent{Kind: EventDisconnected})
		case rtc.EventError:
			rt.emit(NetworkEvent{Kind: EventError, Err: ev.Err})
		}
	}
}

// Send encodes and transmits a game message over the data channel.
func (rt *Runtime) Send(msg protocol.NetworkMessage) error {
	data, err := protocol.EncodeWire(msg)
	if err != nil {
		return err
	}
	if err := rt.engine.Send(data); err != nil {
		return err
	}
	rt.Stats.BytesOut.Add(int64(len(data)))
	return nil
}

// Close tears down both the WebRTC engine and the signaling connection.
func (rt *Runtime) Close() error {
	rt.setState(StateClosed)
	rt.engine.Close()
	return rt.signal.Close()
}

func (rt *Runtime) fail(err error) {
	rt.Stats.LastError = err.Error()
	rt.setState(StateError)
	rt.emit(NetworkEvent{Kind: EventError, Err: err})
}

func (rt *Runtime) emit(ev NetworkEvent) {
	select {
	case rt.Events <- ev:
	default:
		// Events is sized generously for normal play; a full buffer means
		// the game loop has stalled, and blocking here would wedge the
		// signaling/engine pump goroutines too.
	}
}
