// Package console generates the synthetic log lines streamed to the
// driver station.
//
// Line selection is an ordered rule table keyed on the sequence number.
// Rules are evaluated in priority order and the first match wins, which
// makes the modulo precedence (multiples of 50 beat multiples of 25) an
// explicit contract rather than implicit fall-through.
package console

import (
	"fmt"
	"time"

	"github.com/justapithecus/rioconsole/types"
)

// Clock abstracts wall-clock time so message generation can be tested
// without real timers.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// rule pairs a sequence predicate with a line formatter.
type rule struct {
	match  func(seq uint16) bool
	format func(seq uint16, elapsed float32, rate int) (string, types.Kind)
}

// rules in priority order: status every 50th, warning every 25th,
// tick otherwise.
var rules = []rule{
	{
		match: func(seq uint16) bool { return seq%50 == 0 },
		format: func(seq uint16, elapsed float32, rate int) (string, types.Kind) {
			return fmt.Sprintf("[%05d] === PERIODIC STATUS: uptime=%.1fs rate=%d/s ===", seq, elapsed, rate), types.KindStatus
		},
	},
	{
		match: func(seq uint16) bool { return seq%25 == 0 },
		format: func(seq uint16, _ float32, _ int) (string, types.Kind) {
			return fmt.Sprintf("[%05d] WARNING: CAN utilization at 78%% - check wiring", seq), types.KindWarning
		},
	},
	{
		match: func(uint16) bool { return true },
		format: func(seq uint16, elapsed float32, _ int) (string, types.Kind) {
			return fmt.Sprintf("[%05d] Tick %.2fs - The quick brown fox jumps over the lazy dog", seq, elapsed), types.KindTick
		},
	},
}

// Generator produces the message stream for one session.
//
// Sequence counter and start time are session-local. A new session gets
// a fresh Generator, so sequence restarts at 0 and elapsed restarts
// near 0 on every reconnect.
type Generator struct {
	clock Clock
	rate  int
	start time.Time
	seq   uint16
}

// NewGenerator creates a Generator with sequence 0 and start = now.
// rate is the configured emission rate, echoed in status lines.
func NewGenerator(clock Clock, rate int) *Generator {
	return &Generator{clock: clock, rate: rate, start: clock.Now()}
}

// Next returns the next message and advances the sequence counter.
// The counter wraps to 0 after 65535, matching the 2-byte wire field.
func (g *Generator) Next() types.Message {
	elapsed := float32(g.clock.Now().Sub(g.start).Seconds())
	seq := g.seq
	g.seq++

	for _, r := range rules {
		if !r.match(seq) {
			continue
		}
		text, kind := r.format(seq, elapsed, g.rate)
		return types.Message{Seq: seq, Elapsed: elapsed, Text: text, Kind: kind}
	}

	// Unreachable: the last rule matches every sequence.
	return types.Message{Seq: seq, Elapsed: elapsed}
}
