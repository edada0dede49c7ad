// Package protocol implements the binary frame carrying node-to-node traffic.
//
// A frame is a fixed 9-byte header followed by a codec-encoded term body. The
// receiver reads the header first to learn the body length, then reads
// exactly that many bytes — frame boundaries never depend on the body itself.
//
//	0      3  4  5         9
//	┌──────┬──┬──┬─────────┬───────────────┐
//	│magic │v │mt│ bodyLen │    body ...    │
//	│ ern  │01│  │ uint32  │ bodyLen bytes  │
//	└──────┴──┴──┴─────────┴───────────────┘
//
// There is no sequence field: call/reply correlation happens one layer up,
// through the caller-generated Ref inside the gen envelope.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic bytes: "ern". Lets a receiver reject non-protocol connections
// immediately instead of misreading their bytes as a header.
const (
	MagicByte1 byte = 0x65 // 'e'
	MagicByte2 byte = 0x72 // 'r'
	MagicByte3 byte = 0x6e // 'n'
	Version    byte = 0x01
	HeaderSize int  = 9 // 3 (magic) + 1 (version) + 1 (msgType) + 4 (bodyLen)
)

// MsgType distinguishes the three frame kinds on a node link.
type MsgType byte

const (
	MsgTypeSend      MsgType = 0 // Process-to-process message: body is {Sender, Receiver, Message}
	MsgTypeDirective MsgType = 1 // Node-level directive: body is {ReceiverNode, Message}
	MsgTypeHeartbeat MsgType = 2 // KeepAlive probe (no body)
)

// Header is the fixed 9-byte frame header.
type Header struct {
	MsgType MsgType
	BodyLen uint32
}

// Encode writes a complete frame (header + body) to w. Callers sharing a
// writer across goroutines must serialize calls, or frames interleave and
// corrupt the stream.
func Encode(w io.Writer, h *Header, body []byte) error {
	buf := make([]byte, HeaderSize)
	buf[0] = MagicByte1
	buf[1] = MagicByte2
	buf[2] = MagicByte3
	buf[3] = Version
	buf[4] = byte(h.MsgType)
	binary.BigEndian.PutUint32(buf[5:9], h.BodyLen)

	if _, err := w.Write(buf); err != nil {
		return err
	}
	// Body may be nil for heartbeat frames
	if _, err := w.Write(body); err != nil {
		return err
	}
	return nil
}

// Decode reads one complete frame from r, validating magic, version, and
// message type before trusting the body length. io.ReadFull guarantees whole
// reads, so partial TCP segments never surface as short frames.
func Decode(r io.Reader) (*Header, []byte, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, nil, err
	}

	if headerBuf[0] != MagicByte1 || headerBuf[1] != MagicByte2 || headerBuf[2] != MagicByte3 {
		return nil, nil, fmt.Errorf("invalid magic number: %x", headerBuf[0:3])
	}
	if headerBuf[3] != Version {
		return nil, nil, fmt.Errorf("unsupported version: %d", headerBuf[3])
	}

	msgType := headerBuf[4]
	if msgType != byte(MsgTypeSend) && msgType != byte(MsgTypeDirective) && msgType != byte(MsgTypeHeartbeat) {
		return nil, nil, fmt.Errorf("unsupported message type: %d", msgType)
	}

	bodyLen := binary.BigEndian.Uint32(headerBuf[5:9])
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, err
	}

	return &Header{
		MsgType: MsgType(msgType),
		BodyLen: bodyLen,
	}, body, nil
}
