// Package iox provides I/O helpers for socket and resource cleanup.
package iox

import "io"

// DiscardClose closes c and discards the error.
// Use in paths where close errors are unactionable, such as tearing
// down a client connection that already failed a write:
//
//	defer iox.DiscardClose(conn)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a cleanup function that closes c.
// Designed for t.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(conn))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}
