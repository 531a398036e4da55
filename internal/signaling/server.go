package signaling

import (
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/holloway-fold/pongmesh/internal/protocol"
)

// Server is the rendezvous endpoint: a single WebSocket upgrade handler
// backed by a Hub. Grounded on the teacher's internal/p2p/signal_server.go
// shape (one handler type wrapping a session table) but re-cut for a
// persistent per-peer socket instead of HTTP long-polling, per spec.md §4.
type Server struct {
	hub      *Hub
	connect  *connectLimiter
	upgrader websocket.Upgrader
}

// NewServer builds a Server around hub.
func NewServer(hub *Hub) *Server {
	return &Server{
		hub:      hub,
		connect:  newConnectLimiter(connectEventsPerSec, connectBurst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the connection's lifetime.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !s.connect.allow(ip) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("signaling: upgrade from %s failed: %v", ip, err)
		return
	}
	s.handleConn(conn)
}

func (s *Server) handleConn(conn *websocket.Conn) {
	defer conn.Close()

	writes := make(chan protocol.SignalMessage, 16)
	done := make(chan struct{})
	writerExited := make(chan struct{})
	go func() {
		writerLoop(conn, writes, done)
		close(writerExited)
	}()
	send := func(msg protocol.SignalMessage) error {
		select {
		case writes <- msg:
			return nil
		case <-done:
			return net.ErrClosed
		}
	}

	peerID, unregister, err := s.handshake(conn, send)
	if err != nil {
		// Stop the writer, then write the error reply directly so it is on
		// the wire before the deferred Close drops the connection.
		close(done)
		<-writerExited
		if data, encErr := protocol.EncodeSignal(protocol.Error(err.Error())); encErr == nil {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			conn.WriteMessage(websocket.TextMessage, data)
		}
		return
	}
	defer unregister()

	relay := newRelayLimiter()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			close(done)
			return
		}

		if !relay.Allow() {
			send(protocol.Error("rate limited"))
			continue
		}

		msg, err := protocol.DecodeSignal(data)
		if err != nil {
			send(protocol.Error(err.Error()))
			continue
		}

		if err := s.dispatch(peerID, msg, send); err != nil {
			send(protocol.Error(err.Error()))
		}
	}
}

// handshake enforces spec.md §4.2's rule that the first frame on a new
// connection must be register{peer_id}; anything else is a protocol error.
func (s *Server) handshake(conn *websocket.Conn, send outbound) (peerID string, unregister func(), err error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", nil, err
	}
	msg, err := protocol.DecodeSignal(data)
	if err != nil {
		return "", nil, err
	}
	if msg.Type != protocol.SignalRegister {
		return "", nil, errFirstMessageMustRegister
	}

	unregister, err = s.hub.Register(msg.PeerID, send)
	if err != nil {
		return "", nil, err
	}
	if err := send(protocol.RegisterOK(msg.PeerID)); err != nil {
		unregister()
		return "", nil, err
	}
	return msg.PeerID, unregister, nil
}

func (s *Server) dispatch(peerID string, msg protocol.SignalMessage, send outbound) error {
	switch msg.Type {
	case protocol.SignalListPeers:
		return send(protocol.PeerList(s.hub.ListPeers(peerID)))
	case protocol.SignalOffer, protocol.SignalAnswer, protocol.SignalICECandidate:
		return s.hub.Route(peerID, msg)
	case protocol.SignalRegister:
		return errAlreadyRegistered
	default:
		return errUnroutable
	}
}

func writerLoop(conn *websocket.Conn, writes <-chan protocol.SignalMessage, done chan struct{}) {
	for {
		select {
		case msg := <-writes:
			data, err := protocol.EncodeSignal(msg)
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var (
	errFirstMessageMustRegister = signalError("first message on a connection must be register")
	errAlreadyRegistered        = signalError("already registered")
	errUnroutable               = signalError("message type is not routable")
)

type signalError string

func (e signalError) Error() string { return string(e) }
