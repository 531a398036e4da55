package signaling

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/holloway-fold/pongmesh/internal/protocol"
)

// Client is the session runtime's handle onto a signaling connection: dial,
// register, exchange offer/answer/ice_candidate. The connection stays open
// until Close is called; it is not closed when the SDP exchange or the data
// channel completes. Grounded on the request/response shape of the
// teacher's internal/p2p/signaling.go SignalingClient, replacing its
// HTTP create/join/long-poll cycle with a persistent WebSocket per spec.md §4.
type Client struct {
	conn   *websocket.Conn
	PeerID string

	incoming chan protocol.SignalMessage
	errs     chan error
}

// Dial connects to the signaling server at url and registers as peerID,
// blocking until the server confirms with register_ok or the context is
// cancelled.
func Dial(ctx context.Context, url, peerID string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("signaling: dial %s: %w", url, err)
	}

	c := &Client{
		conn:     conn,
		PeerID:   peerID,
		incoming: make(chan protocol.SignalMessage, 16),
		errs:     make(chan error, 1),
	}

	if err := c.send(protocol.Register(peerID)); err != nil {
		conn.Close()
		return nil, err
	}

	reply, err := c.readOne()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if reply.Type == protocol.SignalError {
		conn.Close()
		return nil, fmt.Errorf("signaling: register rejected: %s", reply.Message)
	}
	if reply.Type != protocol.SignalRegisterOK {
		conn.Close()
		return nil, fmt.Errorf("signaling: expected register_ok, got %s", reply.Type)
	}

	go c.readLoop()
	return c, nil
}

// Messages returns the channel of messages received after registration
// completes (peer_list, offer, answer, ice_candidate, error).
func (c *Client) Messages() <-chan protocol.SignalMessage { return c.incoming }

// Err returns a channel that receives at most one value, when the
// connection's read loop terminates.
func (c *Client) Err() <-chan error { return c.errs }

// RequestPeerList asks the server for the current peer roster.
func (c *Client) RequestPeerList() error {
	return c.send(protocol.ListPeers())
}

// SendOffer forwards a local SDP offer to target.
func (c *Client) SendOffer(target, sdp string) error {
	return c.send(protocol.Offer(target, c.PeerID, sdp))
}

// SendAnswer forwards a local SDP answer to target.
func (c *Client) SendAnswer(target, sdp string) error {
	return c.send(protocol.Answer(target, c.PeerID, sdp))
}

// SendICECandidate forwards a local ICE candidate to the paired peer.
func (c *Client) SendICECandidate(candidate string) error {
	return c.send(protocol.ICECandidate(protocol.RemoteTarget, c.PeerID, candidate))
}

// Close tears down the underlying WebSocket connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) send(msg protocol.SignalMessage) error {
	data, err := protocol.EncodeSignal(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readOne() (protocol.SignalMessage, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return protocol.SignalMessage{}, err
	}
	return protocol.DecodeSignal(data)
}

func (c *Client) readLoop() {
	for {
		msg, err := c.readOne()
		if err != nil {
			c.errs <- err
			close(c.incoming)
			return
		}
		c.incoming <- msg
	}
}
