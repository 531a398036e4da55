// Package protocol defines the wire formats shared by the signaling
// rendezvous and the game data channel.
package protocol

import (
	"encoding/json"
	"fmt"
)

// SignalType is the "type" discriminant carried by every signaling message.
type SignalType string

const (
	SignalRegister     SignalType = "register"
	SignalRegisterOK   SignalType = "register_ok"
	SignalListPeers    SignalType = "list_peers"
	SignalPeerList     SignalType = "peer_list"
	SignalOffer        SignalType = "offer"
	SignalAnswer       SignalType = "answer"
	SignalICECandidate SignalType = "ice_candidate"
	SignalError        SignalType = "error"
)

// RemoteTarget is the literal target value that means "whichever peer I am
// paired with", used by ice_candidate messages per spec.md §4.2 step 5.
const RemoteTarget = "remote"

// SignalMessage is the tagged union exchanged over the signaling WebSocket.
// Only the fields relevant to Type are populated; json tags are snake_case
// to match the wire format spec.md §3 describes.
type SignalMessage struct {
	Type      SignalType `json:"type"`
	PeerID    string     `json:"peer_id,omitempty"`
	Peers     []string   `json:"peers,omitempty"`
	Target    string     `json:"target,omitempty"`
	From      string     `json:"from,omitempty"`
	SDP       string     `json:"sdp,omitempty"`
	Candidate string     `json:"candidate,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Register builds a register{peer_id} message.
func Register(peerID string) SignalMessage {
	return SignalMessage{Type: SignalRegister, PeerID: peerID}
}

// RegisterOK builds a register_ok{peer_id} reply.
func RegisterOK(peerID string) SignalMessage {
	return SignalMessage{Type: SignalRegisterOK, PeerID: peerID}
}

// ListPeers builds a list_peers request.
func ListPeers() SignalMessage {
	return SignalMessage{Type: SignalListPeers}
}

// PeerList builds a peer_list{peers} reply.
func PeerList(peers []string) SignalMessage {
	return SignalMessage{Type: SignalPeerList, Peers: peers}
}

// Offer builds an offer{target,from,sdp} message.
func Offer(target, from, sdp string) SignalMessage {
	return SignalMessage{Type: SignalOffer, Target: target, From: from, SDP: sdp}
}

// Answer builds an answer{target,from,sdp} message.
func Answer(target, from, sdp string) SignalMessage {
	return SignalMessage{Type: SignalAnswer, Target: target, From: from, SDP: sdp}
}

// ICECandidate builds an ice_candidate{target,from,candidate} message.
func ICECandidate(target, from, candidate string) SignalMessage {
	return SignalMessage{Type: SignalICECandidate, Target: target, From: from, Candidate: candidate}
}

// Error builds an error{message} reply.
func Error(message string) SignalMessage {
	return SignalMessage{Type: SignalError, Message: message}
}

// knownSignalTypes is used to reject unknown discriminants at decode time;
// spec.md §4.1 requires unknown variants to be treated as errors, never
// silently accepted.
var knownSignalTypes = map[SignalType]bool{
	SignalRegister:     true,
	SignalRegisterOK:   true,
	SignalListPeers:    true,
	SignalPeerList:     true,
	SignalOffer:        true,
	SignalAnswer:       true,
	SignalICECandidate: true,
	SignalError:        true,
}

// DecodeSignal parses a JSON text frame into a SignalMessage. Both
// malformed JSON and an unrecognized "type" are reported as errors; the
// caller (the signaling server) is responsible for replying with
// error{message: "Invalid message format: ..."} per spec.md §4.2.
func DecodeSignal(data []byte) (SignalMessage, error) {
	var msg SignalMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SignalMessage{}, fmt.Errorf("invalid message format: %w", err)
	}
	if !knownSignalTypes[msg.Type] {
		return SignalMessage{}, fmt.Errorf("invalid message format: unknown type %q", msg.Type)
	}
	return msg, nil
}

// EncodeSignal serializes a SignalMessage to a JSON text frame.
func EncodeSignal(msg SignalMessage) ([]byte, error) {
	return json.Marshal(msg)
}
