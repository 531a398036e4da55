package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// InputAction mirrors the wire-legal subset of the original engine's input
// enum. LeftPaddleStop and RightPaddleStop never cross the wire — they are
// synthesized locally from key-release events — so they carry no
// discriminant here.
type InputAction uint8

const (
	ActionQuit InputAction = iota
	ActionLeftPaddleUp
	ActionLeftPaddleDown
	ActionRightPaddleUp
	ActionRightPaddleDown
	ActionRematch
)

func (a InputAction) String() string {
	switch a {
	case ActionQuit:
		return "Quit"
	case ActionLeftPaddleUp:
		return "LeftPaddleUp"
	case ActionLeftPaddleDown:
		return "LeftPaddleDown"
	case ActionRightPaddleUp:
		return "RightPaddleUp"
	case ActionRightPaddleDown:
		return "RightPaddleDown"
	case ActionRematch:
		return "Rematch"
	default:
		return fmt.Sprintf("InputAction(%d)", uint8(a))
	}
}

// messageTag is the leading discriminant byte of every NetworkMessage,
// ordered to match the original bincode enum declaration exactly so a
// capture from either side is byte-identical in tag position.
type messageTag uint8

const (
	tagInput messageTag = iota
	tagBallSync
	tagScoreSync
	tagHello
	tagPing
	tagPong
	tagHeartbeat
	tagRematchRequest
	tagRematchConfirm
	tagQuitRequest
	tagDisconnect
)

// NetworkMessage is the tagged union carried over the game data channel.
// Exactly one of the typed fields is meaningful, selected by Tag.
type NetworkMessage struct {
	Tag messageTag

	Input InputAction // tagInput

	// tagBallSync
	Sequence    uint64
	X, Y        float64
	VX, VY      float64
	TimestampMS uint64 // ms since the host's match loop started when it sampled this BallState

	// tagScoreSync
	LeftScore, RightScore uint8
	GameOver              bool

	// tagHello
	PeerID string

	// tagPing, tagPong also use TimestampMS above

	// tagHeartbeat
	HeartbeatSeq uint64
}

// MessageInput builds an Input message.
func MessageInput(action InputAction) NetworkMessage {
	return NetworkMessage{Tag: tagInput, Input: action}
}

// MessageBallSync builds a BallSync message.
func MessageBallSync(sequence uint64, x, y, vx, vy float64, timestampMS uint64) NetworkMessage {
	return NetworkMessage{Tag: tagBallSync, Sequence: sequence, X: x, Y: y, VX: vx, VY: vy, TimestampMS: timestampMS}
}

// MessageScoreSync builds a ScoreSync message.
func MessageScoreSync(left, right uint8, gameOver bool) NetworkMessage {
	return NetworkMessage{Tag: tagScoreSync, LeftScore: left, RightScore: right, GameOver: gameOver}
}

// MessageHello builds a Hello message.
func MessageHello(peerID string) NetworkMessage {
	return NetworkMessage{Tag: tagHello, PeerID: peerID}
}

// MessagePing builds a Ping message.
func MessagePing(timestampMS uint64) NetworkMessage {
	return NetworkMessage{Tag: tagPing, TimestampMS: timestampMS}
}

// MessagePong builds a Pong message that echoes a Ping's timestamp.
func MessagePong(timestampMS uint64) NetworkMessage {
	return NetworkMessage{Tag: tagPong, TimestampMS: timestampMS}
}

// MessageHeartbeat builds a Heartbeat message.
func MessageHeartbeat(sequence uint64) NetworkMessage {
	return NetworkMessage{Tag: tagHeartbeat, HeartbeatSeq: sequence}
}

// MessageRematchRequest, MessageRematchConfirm, MessageQuitRequest and
// MessageDisconnect build the four payload-less messages.
func MessageRematchRequest() NetworkMessage { return NetworkMessage{Tag: tagRematchRequest} }
func MessageRematchConfirm() NetworkMessage { return NetworkMessage{Tag: tagRematchConfirm} }
func MessageQuitRequest() NetworkMessage    { return NetworkMessage{Tag: tagQuitRequest} }
func MessageDisconnect() NetworkMessage     { return NetworkMessage{Tag: tagDisconnect} }

// IsInput, IsBallSync, ... let callers branch on Tag without exposing the
// unexported type outside the package.
func (m NetworkMessage) IsInput() bool           { return m.Tag == tagInput }
func (m NetworkMessage) IsBallSync() bool        { return m.Tag == tagBallSync }
func (m NetworkMessage) IsScoreSync() bool       { return m.Tag == tagScoreSync }
func (m NetworkMessage) IsHello() bool           { return m.Tag == tagHello }
func (m NetworkMessage) IsPing() bool            { return m.Tag == tagPing }
func (m NetworkMessage) IsPong() bool            { return m.Tag == tagPong }
func (m NetworkMessage) IsHeartbeat() bool       { return m.Tag == tagHeartbeat }
func (m NetworkMessage) IsRematchRequest() bool  { return m.Tag == tagRematchRequest }
func (m NetworkMessage) IsRematchConfirm() bool  { return m.Tag == tagRematchConfirm }
func (m NetworkMessage) IsQuitRequest() bool     { return m.Tag == tagQuitRequest }
func (m NetworkMessage) IsDisconnect() bool      { return m.Tag == tagDisconnect }

var errShortBuffer = errors.New("protocol: buffer too short")

// EncodeWire serializes a NetworkMessage into its binary data-channel
// representation: one discriminant byte followed by fixed-width
// little-endian fields, matching the field order of the originating struct.
func EncodeWire(msg NetworkMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(msg.Tag))

	switch msg.Tag {
	case tagInput:
		buf.WriteByte(byte(msg.Input))
	case tagBallSync:
		writeUint64(&buf, msg.Sequence)
		writeFloat64(&buf, msg.X)
		writeFloat64(&buf, msg.Y)
		writeFloat64(&buf, msg.VX)
		writeFloat64(&buf, msg.VY)
		writeUint64(&buf, msg.TimestampMS)
	case tagScoreSync:
		buf.WriteByte(msg.LeftScore)
		buf.WriteByte(msg.RightScore)
		writeBool(&buf, msg.GameOver)
	case tagHello:
		writeString(&buf, msg.PeerID)
	case tagPing, tagPong:
		writeUint64(&buf, msg.TimestampMS)
	case tagHeartbeat:
		writeUint64(&buf, msg.HeartbeatSeq)
	case tagRematchRequest, tagRematchConfirm, tagQuitRequest, tagDisconnect:
		// no payload
	default:
		return nil, fmt.Errorf("protocol: unknown message tag %d", msg.Tag)
	}
	return buf.Bytes(), nil
}

// DecodeWire is the inverse of EncodeWire. An unrecognized discriminant or a
// truncated payload is reported as an error rather than silently ignored.
func DecodeWire(data []byte) (NetworkMessage, error) {
	if len(data) < 1 {
		return NetworkMessage{}, errShortBuffer
	}
	r := bytes.NewReader(data[1:])
	tag := messageTag(data[0])

	switch tag {
	case tagInput:
		b, err := r.ReadByte()
		if err != nil {
			return NetworkMessage{}, errShortBuffer
		}
		if InputAction(b) > ActionRematch {
			return NetworkMessage{}, fmt.Errorf("protocol: unknown input action %d", b)
		}
		return MessageInput(InputAction(b)), nil
	case tagBallSync:
		seq, err := readUint64(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		x, err := readFloat64(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		y, err := readFloat64(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		vx, err := readFloat64(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		vy, err := readFloat64(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		ts, err := readUint64(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		return MessageBallSync(seq, x, y, vx, vy, ts), nil
	case tagScoreSync:
		left, err := r.ReadByte()
		if err != nil {
			return NetworkMessage{}, errShortBuffer
		}
		right, err := r.ReadByte()
		if err != nil {
			return NetworkMessage{}, errShortBuffer
		}
		over, err := readBool(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		return MessageScoreSync(left, right, over), nil
	case tagHello:
		peerID, err := readString(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		return MessageHello(peerID), nil
	case tagPing:
		ts, err := readUint64(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		return MessagePing(ts), nil
	case tagPong:
		ts, err := readUint64(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		return MessagePong(ts), nil
	case tagHeartbeat:
		seq, err := readUint64(r)
		if err != nil {
			return NetworkMessage{}, err
		}
		return MessageHeartbeat(seq), nil
	case tagRematchRequest:
		return MessageRematchRequest(), nil
	case tagRematchConfirm:
		return MessageRematchConfirm(), nil
	case tagQuitRequest:
		return MessageQuitRequest(), nil
	case tagDisconnect:
		return MessageDisconnect(), nil
	default:
		return NetworkMessage{}, fmt.Errorf("protocol: unknown message tag %d", tag)
	}
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeFloat64(buf *bytes.Buffer, v float64) {
	writeUint64(buf, math.Float64bits(v))
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(s)))
	buf.Write(lenBytes[:])
	buf.WriteString(s)
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readFloat64(r *bytes.Reader) (float64, error) {
	bits, err := readUint64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, errShortBuffer
	}
	return b != 0, nil
}

func readString(r *bytes.Reader) (string, error) {
	var lenBytes [4]byte
	if _, err := readFull(r, lenBytes[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lenBytes[:])
	b := make([]byte, n)
	if _, err := readFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readFull(r *bytes.Reader, b []byte) (int, error) {
	n, err := r.Read(b)
	if err != nil || n != len(b) {
		return n, errShortBuffer
	}
	return n, nil
}
