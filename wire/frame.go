// Package wire implements the roboRIO console TCP framing.
//
// Frame layout (big-endian throughout):
//
//	size:uint16  tag:uint8  data:bytes[size-1]
//
// size counts the tag byte plus the data, not the size field itself.
// For the stdout tag (0x0C) the data is:
//
//	elapsed:float32  sequence:uint16  text:UTF-8 (no terminator)
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/justapithecus/rioconsole/types"
)

// Tags understood by the driver station on port 1740. This server only
// ever emits TagStdout; the rest are documented here because they share
// the frame layout and show up in captures of real robot traffic.
const (
	TagRadioEvents   byte = 0x00
	TagDisableFaults byte = 0x04
	TagRailFaults    byte = 0x05
	TagVersionInfo   byte = 0x0A
	TagErrorMessage  byte = 0x0B
	TagStdout        byte = 0x0C
)

// Frame size constants.
const (
	// SizePrefixSize is the size of the size prefix in bytes.
	SizePrefixSize = 2
	// StdoutHeaderSize is the fixed part of stdout frame data:
	// elapsed (4 bytes) plus sequence (2 bytes).
	StdoutHeaderSize = 6
	// MaxDataSize is the maximum data size: the 2-byte size field
	// counts tag plus data, so data caps at 65535 - 1.
	MaxDataSize = math.MaxUint16 - 1
	// MaxTextSize is the maximum text length in a stdout frame.
	MaxTextSize = MaxDataSize - StdoutHeaderSize
)

// FrameErrorKind classifies framing errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates message text that cannot fit the
	// 2-byte size field.
	FrameErrorTooLarge
	// FrameErrorDecode indicates frame data that does not match the
	// declared tag's layout.
	FrameErrorDecode
)

// FrameError represents a framing error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Encode serializes m into a single stdout frame.
// Invariant: the size field always equals 1 + len(data).
func Encode(m types.Message) ([]byte, error) {
	if len(m.Text) > MaxTextSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("text size %d exceeds maximum %d", len(m.Text), MaxTextSize),
		}
	}

	dataSize := StdoutHeaderSize + len(m.Text)
	buf := make([]byte, SizePrefixSize+1+dataSize)
	binary.BigEndian.PutUint16(buf[0:2], uint16(1+dataSize))
	buf[2] = TagStdout
	binary.BigEndian.PutUint32(buf[3:7], math.Float32bits(m.Elapsed))
	binary.BigEndian.PutUint16(buf[7:9], m.Seq)
	copy(buf[9:], m.Text)
	return buf, nil
}

// FrameDecoder reads console frames from a stream.
//
// The server never reads from its socket; the decoder exists for test
// clients and capture tooling that consume the stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: r}
}

// ReadFrame reads a single frame, returning its tag and the data bytes
// following the tag.
//
// Errors:
//   - io.EOF: stream ended cleanly on a frame boundary
//   - *FrameError with Kind=FrameErrorPartial: truncated frame
//   - *FrameError with Kind=FrameErrorDecode: zero-size frame
func (d *FrameDecoder) ReadFrame() (byte, []byte, error) {
	var sizeBuf [SizePrefixSize]byte
	_, err := io.ReadFull(d.reader, sizeBuf[:])
	if err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read size prefix",
			Err:  err,
		}
	}

	size := binary.BigEndian.Uint16(sizeBuf[:])
	if size == 0 {
		return 0, nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "zero-size frame",
		}
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(d.reader, body); err != nil {
		return 0, nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read frame body",
			Err:  err,
		}
	}

	return body[0], body[1:], nil
}

// DecodeStdout decodes the data portion of a stdout (0x0C) frame.
// The returned message's Kind is unset; the wire does not carry it.
func DecodeStdout(data []byte) (types.Message, error) {
	if len(data) < StdoutHeaderSize {
		return types.Message{}, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("stdout data too short: %d bytes, need at least %d", len(data), StdoutHeaderSize),
		}
	}

	return types.Message{
		Elapsed: math.Float32frombits(binary.BigEndian.Uint32(data[0:4])),
		Seq:     binary.BigEndian.Uint16(data[4:6]),
		Text:    string(data[6:]),
	}, nil
}
