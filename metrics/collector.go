// Package metrics provides process-lifetime counters for the console
// server. The Collector is a leaf package with no internal dependencies;
// the server increments it inline and logs a Snapshot when a session ends.
package metrics

import (
	"sync"

	"github.com/justapithecus/rioconsole/types"
)

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Sessions
	SessionsAccepted     int64
	SessionsDisconnected int64

	// Emission
	FramesEmitted int64
	BytesWritten  int64
	FramesByKind  map[types.Kind]int64
	WriteFailures int64

	// Dimensions (informational, set at construction)
	ListenAddr string
	Rate       int
}

// Collector accumulates counters for the lifetime of the process,
// across all serial sessions. Thread-safe via sync.Mutex. All increment
// methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	sessionsAccepted     int64
	sessionsDisconnected int64

	framesEmitted int64
	bytesWritten  int64
	framesByKind  map[types.Kind]int64
	writeFailures int64

	listenAddr string
	rate       int
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(listenAddr string, rate int) *Collector {
	return &Collector{
		framesByKind: make(map[types.Kind]int64),
		listenAddr:   listenAddr,
		rate:         rate,
	}
}

// IncSessionAccepted records an accepted client connection.
func (c *Collector) IncSessionAccepted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionsAccepted++
}

// IncSessionDisconnected records a session ended by peer disconnect.
func (c *Collector) IncSessionDisconnected() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionsDisconnected++
}

// IncWriteFailure records a failed frame write.
func (c *Collector) IncWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeFailures++
}

// AddFrame records one fully written frame of the given kind and size.
func (c *Collector) AddFrame(kind types.Kind, size int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framesEmitted++
	c.bytesWritten += int64(size)
	c.framesByKind[kind]++
}

// Snapshot returns an immutable copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[types.Kind]int64, len(c.framesByKind))
	for k, v := range c.framesByKind {
		byKind[k] = v
	}

	return Snapshot{
		SessionsAccepted:     c.sessionsAccepted,
		SessionsDisconnected: c.sessionsDisconnected,
		FramesEmitted:        c.framesEmitted,
		BytesWritten:         c.bytesWritten,
		FramesByKind:         byKind,
		WriteFailures:        c.writeFailures,
		ListenAddr:           c.listenAddr,
		Rate:                 c.rate,
	}
}
