// Package pool provides a bounded per-host connection pool over raw
// TCP/TLS connections.
//
// Each Pool serves exactly one (host, port, tls) endpoint. Acquire
// hands out a previously released connection when one is free, dials a
// new one while the pool is below capacity, and refuses with
// ErrExhausted otherwise. Callers decide at Release time whether a
// connection is still usable: only connections whose last exchange
// ended cleanly go back on the free list, everything else is closed
// and its slot freed for a future dial.
//
// Design decision: Acquire checks idle connections with a one-byte
// read under an immediate deadline before handing them out. Image
// hosts close keep-alive connections aggressively, and a server-side
// close would otherwise turn the next exchange on a perfectly valid
// URL into a recorded failure. The check costs no round trip: an idle
// socket either has a pending EOF to report or times out at once.
// A close can still race the exchange itself, so Acquire also tells
// the caller whether the connection was reused, letting it retry once
// on a fresh connection before treating the failure as real.
package pool
