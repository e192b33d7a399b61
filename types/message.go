// Package types defines the shared message model for the console stream.
// It is a leaf package with no internal dependencies.
package types

// Kind classifies a console message by the generation rule that produced it.
type Kind string

const (
	// KindStatus is the periodic status line (every 50th message).
	KindStatus Kind = "status"
	// KindWarning is the utilization warning line (every 25th message
	// that is not also a 50th).
	KindWarning Kind = "warning"
	// KindTick is the default filler line.
	KindTick Kind = "tick"
)

// Message is one synthetic console line before framing.
//
// Seq wraps modulo 65536, matching the 2-byte wire field. Elapsed is
// seconds since session start, carried as float32 because that is the
// wire precision.
type Message struct {
	Seq     uint16
	Elapsed float32
	Text    string
	Kind    Kind
}
