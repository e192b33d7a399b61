package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/justapithecus/rioconsole/types"
)

func TestEncode_SizeInvariant(t *testing.T) {
	texts := []string{
		"",
		"x",
		"[00000] === PERIODIC STATUS: uptime=0.0s rate=10/s ===",
		strings.Repeat("a", 1024),
	}

	for _, text := range texts {
		frame, err := Encode(types.Message{Seq: 7, Elapsed: 1.5, Text: text})
		if err != nil {
			t.Fatalf("Encode(%d bytes of text) failed: %v", len(text), err)
		}

		size := binary.BigEndian.Uint16(frame[0:2])
		if want := uint16(1 + StdoutHeaderSize + len(text)); size != want {
			t.Errorf("size field = %d, want %d", size, want)
		}
		if got, want := len(frame), SizePrefixSize+int(size); got != want {
			t.Errorf("frame length = %d, want %d", got, want)
		}
	}
}

func TestEncode_Layout(t *testing.T) {
	frame, err := Encode(types.Message{Seq: 258, Elapsed: 2.5, Text: "hi"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := []byte{
		0x00, 0x09, // size: tag + 4 + 2 + 2
		0x0C,                   // tag: stdout
		0x40, 0x20, 0x00, 0x00, // 2.5 as float32 BE
		0x01, 0x02, // sequence 258
		'h', 'i',
	}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % X, want % X", frame, want)
	}
}

func TestEncode_TextTooLarge(t *testing.T) {
	_, err := Encode(types.Message{Text: strings.Repeat("a", MaxTextSize+1)})
	if err == nil {
		t.Fatal("Encode succeeded, want error")
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("error type = %T, want *FrameError", err)
	}
	if frameErr.Kind != FrameErrorTooLarge {
		t.Errorf("Kind = %d, want FrameErrorTooLarge", frameErr.Kind)
	}
}

func TestFrameDecoder_RoundTrip(t *testing.T) {
	messages := []types.Message{
		{Seq: 0, Elapsed: 0, Text: "[00000] === PERIODIC STATUS: uptime=0.0s rate=10/s ==="},
		{Seq: 1, Elapsed: 0.1, Text: "[00001] Tick 0.10s - The quick brown fox jumps over the lazy dog"},
		{Seq: 65535, Elapsed: 6553.5, Text: ""},
	}

	var buf bytes.Buffer
	for _, m := range messages {
		frame, err := Encode(m)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		buf.Write(frame)
	}

	decoder := NewFrameDecoder(&buf)
	for i, want := range messages {
		tag, data, err := decoder.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		if tag != TagStdout {
			t.Errorf("frame %d tag = 0x%02X, want 0x%02X", i, tag, TagStdout)
		}

		got, err := DecodeStdout(data)
		if err != nil {
			t.Fatalf("DecodeStdout %d failed: %v", i, err)
		}
		if got.Seq != want.Seq {
			t.Errorf("frame %d Seq = %d, want %d", i, got.Seq, want.Seq)
		}
		if got.Elapsed != want.Elapsed {
			t.Errorf("frame %d Elapsed = %v, want %v", i, got.Elapsed, want.Elapsed)
		}
		if got.Text != want.Text {
			t.Errorf("frame %d Text = %q, want %q", i, got.Text, want.Text)
		}
	}

	if _, _, err := decoder.ReadFrame(); err != io.EOF {
		t.Errorf("ReadFrame after last frame = %v, want io.EOF", err)
	}
}

func TestFrameDecoder_PartialFrame(t *testing.T) {
	frame, err := Encode(types.Message{Seq: 3, Elapsed: 1, Text: "truncated"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Cut the frame mid-body.
	decoder := NewFrameDecoder(bytes.NewReader(frame[:len(frame)-4]))
	_, _, err = decoder.ReadFrame()

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("error type = %T, want *FrameError", err)
	}
	if frameErr.Kind != FrameErrorPartial {
		t.Errorf("Kind = %d, want FrameErrorPartial", frameErr.Kind)
	}
}

func TestFrameDecoder_PartialSizePrefix(t *testing.T) {
	decoder := NewFrameDecoder(bytes.NewReader([]byte{0x00}))
	_, _, err := decoder.ReadFrame()

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("error type = %T, want *FrameError", err)
	}
	if frameErr.Kind != FrameErrorPartial {
		t.Errorf("Kind = %d, want FrameErrorPartial", frameErr.Kind)
	}
}

func TestFrameDecoder_ZeroSizeFrame(t *testing.T) {
	decoder := NewFrameDecoder(bytes.NewReader([]byte{0x00, 0x00}))
	_, _, err := decoder.ReadFrame()

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("error type = %T, want *FrameError", err)
	}
	if frameErr.Kind != FrameErrorDecode {
		t.Errorf("Kind = %d, want FrameErrorDecode", frameErr.Kind)
	}
}

func TestDecodeStdout_TooShort(t *testing.T) {
	_, err := DecodeStdout([]byte{0x01, 0x02, 0x03})
	if err == nil {
		t.Fatal("DecodeStdout succeeded, want error")
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("error type = %T, want *FrameError", err)
	}
	if frameErr.Kind != FrameErrorDecode {
		t.Errorf("Kind = %d, want FrameErrorDecode", frameErr.Kind)
	}
}

func TestEncode_ElapsedPrecision(t *testing.T) {
	frame, err := Encode(types.Message{Seq: 0, Elapsed: 123.456, Text: "t"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	bits := binary.BigEndian.Uint32(frame[3:7])
	if got := math.Float32frombits(bits); got != 123.456 {
		t.Errorf("elapsed = %v, want 123.456", got)
	}
}
