package rtc

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
)

// stunServers are the public STUN servers used for NAT reflexive candidate
// discovery. TURN relay fallback is intentionally absent: spec.md excludes
// it as a non-goal, so unlike the teacher's internal/p2p/webrtc.go (which
// carries a free TURN pool for CGNAT-to-CGNAT cases) a match that can't
// find a direct or STUN-reflexive path simply fails to connect.
var stunServers = []string{
	"stun:stun.cloudflare.com:3478",
	"stun:stun.l.google.com:19302",
}

const (
	dataChannelLabel          = "pong"
	dataChannelMaxRetransmits = uint16(3)
)

// Engine wraps a single pion PeerConnection and its data channel, bridging
// pion's callback-based API into the plain Go channels the session runtime
// consumes. This is the idiomatic-Go stand-in for the original's sans-I/O
// WebRTC engine: there is no Go library offering str0m's poll/handle-event
// loop, so the state machine pion already drives via callbacks is adapted
// in place rather than reimplemented from UDP sockets up. Grounded on the
// teacher's internal/p2p/webrtc.go PeerConnection wrapper.
type Engine struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	writeMu sync.Mutex

	Events chan Event

	connectedOnce sync.Once
	connectedCh   chan struct{}

	closeOnce sync.Once
	closeCh   chan struct{}
}

// EventKind enumerates what happened to the underlying connection or data
// channel; the session runtime translates these into its own NetworkEvent
// values rather than depending on pion types directly.
type EventKind int

const (
	EventICECandidate EventKind = iota
	EventConnected
	EventDataChannelOpen
	EventMessage
	EventDisconnected
	EventError
)

// Event is one notification emitted on Engine.Events.
type Event struct {
	Kind      EventKind
	Candidate string // EventICECandidate
	Data      []byte // EventMessage
	Err       error  // EventError
}

// NewEngine creates a PeerConnection restricted to the given interface
// names (from SelectInterfaces), wired to emit Events as ICE and data
// channel callbacks fire.
func NewEngine(allowedInterfaces []string) (*Engine, error) {
	settingEngine := webrtc.SettingEngine{}
	if len(allowedInterfaces) > 0 {
		settingEngine.SetInterfaceFilter(func(name string) bool {
			for _, allowed := range allowedInterfaces {
				if name == allowed {
					return true
				}
			}
			return false
		})
	}

	api := webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine))

	config := webrtc.Configuration{
		ICEServers:         []webrtc.ICEServer{{URLs: stunServers}},
		ICETransportPolicy: webrtc.ICETransportPolicyAll,
	}

	pc, err := api.NewPeerConnection(config)
	if err != nil {
		return nil, fmt.Errorf("rtc: new peer connection: %w", err)
	}

	e := &Engine{
		pc:          pc,
		Events:      make(chan Event, 64),
		connectedCh: make(chan struct{}),
		closeCh:     make(chan struct{}),
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return // gathering complete
		}
		e.emit(Event{Kind: EventICECandidate, Candidate: c.ToJSON().Candidate})
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateConnected:
			e.connectedOnce.Do(func() { close(e.connectedCh) })
			e.emit(Event{Kind: EventConnected})
		case webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			e.emit(Event{Kind: EventDisconnected})
		}
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		e.bindDataChannel(dc)
	})

	return e, nil
}

// CreateOffer opens the data channel (host side only — the joiner receives
// it via OnDataChannel) and returns the local SDP offer, blocking until ICE
// gathering completes so the returned SDP carries every local candidate.
func (e *Engine) CreateOffer() (string, error) {
	ordered := false
	dc, err := e.pc.CreateDataChannel(dataChannelLabel, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &dataChannelMaxRetransmits,
	})
	if err != nil {
		return "", fmt.Errorf("rtc: create data channel: %w", err)
	}
	e.bindDataChannel(dc)

	offer, err := e.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("rtc: create offer: %w", err)
	}
	if err := e.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("rtc: set local description: %w", err)
	}
	<-webrtc.GatheringCompletePromise(e.pc)

	return e.pc.LocalDescription().SDP, nil
}

// HandleOffer sets the remote offer and returns the local SDP answer once
// ICE gathering completes.
func (e *Engine) HandleOffer(sdp string) (string, error) {
	if err := e.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		return "", fmt.Errorf("rtc: set remote description: %w", err)
	}

	answer, err := e.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("rtc: create answer: %w", err)
	}
	if err := e.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("rtc: set local description: %w", err)
	}
	<-webrtc.GatheringCompletePromise(e.pc)

	return e.pc.LocalDescription().SDP, nil
}

// HandleAnswer applies the remote SDP answer (host side, after the joiner
// replies).
func (e *Engine) HandleAnswer(sdp string) error {
	return e.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp})
}

// AddICECandidate applies a trickled remote candidate.
func (e *Engine) AddICECandidate(candidate string) error {
	return e.pc.AddICECandidate(webrtc.ICECandidateInit{Candidate: candidate})
}

// Send writes a framed message to the data channel.
func (e *Engine) Send(data []byte) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.dc == nil || e.dc.ReadyState() != webrtc.DataChannelStateOpen {
		return io.ErrClosedPipe
	}
	return e.dc.Send(data)
}

// Close tears down the data channel and peer connection.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.closeCh)
		if e.dc != nil {
			e.dc.Close()
		}
		if e.pc != nil {
			e.pc.Close()
		}
	})
	return nil
}

// WaitConnected blocks until the peer connection reaches the Connected
// state or timeout elapses. It does not consume from Events, so the
// caller's own event loop can run concurrently or afterwards.
func (e *Engine) WaitConnected(timeout time.Duration) error {
	select {
	case <-e.connectedCh:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("rtc: timed out waiting for connection")
	case <-e.closeCh:
		return fmt.Errorf("rtc: closed while waiting for connection")
	}
}

func (e *Engine) bindDataChannel(dc *webrtc.DataChannel) {
	e.dc = dc

	dc.OnOpen(func() {
		e.emit(Event{Kind: EventDataChannelOpen})
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		e.emit(Event{Kind: EventMessage, Data: msg.Data})
	})
	dc.OnClose(func() {
		e.emit(Event{Kind: EventDisconnected})
	})
	dc.OnError(func(err error) {
		e.emit(Event{Kind: EventError, Err: err})
	})
}

func (e *Engine) emit(ev Event) {
	select {
	case e.Events <- ev:
	case <-e.closeCh:
	}
}
