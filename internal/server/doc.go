// Package server accepts coordinator connections and feeds their lines to
// a Handler.
//
// Each accepted connection gets its own goroutine, which reads
// newline-terminated lines, hands each to the Handler and writes the reply
// before reading the next line, so replies on one connection keep request
// order. Lines split across TCP segments are reassembled; a partial line
// left when the peer closes is discarded. A line longer than the configured
// maximum is skipped and answered with the protocol's invalid request
// error.
//
// A connection is closed when the peer closes it, on any read or write
// error, or when nothing arrives within the idle timeout. The timeout is
// re-armed before every read, so a slow but steady sender is not cut off.
// None of these affect other connections.
//
// Shutdown is driven by the context passed to Serve: the listener is
// closed, every blocked read is woken, and Serve returns once each handler
// has finished the line it was processing.
package server
