package link

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// FrameHeaderSize is 4 bytes length + 1 byte frame type.
	FrameHeaderSize = 5

	// MaxFrameSize is the maximum allowed frame size (including header).
	MaxFrameSize = 1 << 20

	// DataChunkSize is the payload size of data frames.
	DataChunkSize = 32 * 1024
)

// FrameType identifies the contents of a frame.
type FrameType byte

const (
	FrameHeader  FrameType = 0x01 // sender announces name and size
	FrameData    FrameType = 0x02 // file bytes
	FrameTrailer FrameType = 0x03 // checksum of everything sent
	FrameAck     FrameType = 0x04 // receiver verdict
	FrameAbort   FrameType = 0x05 // sender gave up
	FramePull    FrameType = 0x06 // client asks the device to transmit
)

var frameNames = map[FrameType]string{
	FrameHeader:  "header",
	FrameData:    "data",
	FrameTrailer: "trailer",
	FrameAck:     "ack",
	FrameAbort:   "abort",
	FramePull:    "pull",
}

func (t FrameType) String() string {
	if s, ok := frameNames[t]; ok {
		return s
	}
	return fmt.Sprintf("frame(0x%02x)", byte(t))
}

// Frame is a single protocol message on the wire.
type Frame struct {
	Payload []byte
	Type    FrameType
}

var (
	// ErrFrameTooLarge is returned when a frame exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	// ErrUnknownFrame is returned for an unrecognised frame type.
	ErrUnknownFrame = errors.New("unknown frame type")
	// ErrMalformedFrame is returned for a frame whose length is impossible.
	ErrMalformedFrame = errors.New("malformed frame")
)

// WriteFrame writes a length-prefixed frame to w in a single Write call.
// Wire format: [4-byte length (big-endian)][1-byte type][payload], where the
// length covers the type byte and the payload.
//
//nolint:gosec // G115: payload length bounded by MaxFrameSize check
func WriteFrame(w io.Writer, f Frame) error {
	if len(f.Payload) > MaxFrameSize-FrameHeaderSize {
		return ErrFrameTooLarge
	}
	totalLen := uint32(1 + len(f.Payload))

	buf := make([]byte, FrameHeaderSize+len(f.Payload))
	binary.BigEndian.PutUint32(buf[0:4], totalLen)
	buf[4] = byte(f.Type)
	copy(buf[FrameHeaderSize:], f.Payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame reads a length-prefixed frame from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}

	totalLen := binary.BigEndian.Uint32(header[0:4])
	if totalLen > MaxFrameSize-4 {
		return Frame{}, ErrFrameTooLarge
	}
	if totalLen < 1 {
		return Frame{}, fmt.Errorf("%w: length %d", ErrMalformedFrame, totalLen)
	}

	f := Frame{Type: FrameType(header[4])}
	if _, ok := frameNames[f.Type]; !ok {
		return Frame{}, fmt.Errorf("%w: 0x%02x", ErrUnknownFrame, header[4])
	}

	if payloadLen := totalLen - 1; payloadLen > 0 {
		f.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return Frame{}, fmt.Errorf("read frame payload: %w", err)
		}
	}
	return f, nil
}
