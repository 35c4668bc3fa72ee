// Package endpoint builds ready-to-use sockets for the two transport kinds
// and the two address families, hiding family-specific setup (address reuse,
// DSCP marking, overlay framing) behind small interfaces.
package endpoint

import (
	"net"
	"time"

	"go_echo_harness/addressing"
)

// Datagram is a connectionless endpoint able to attribute every received
// packet to a sender address.
type Datagram interface {
	// Send transmits b as one unit to the given peer.
	Send(b []byte, to addressing.Value) error

	// RecvFrom performs exactly one receive into b, reporting the payload
	// length and the sender's address.
	RecvFrom(b []byte) (int, addressing.Value, error)

	// SetRecvDeadline bounds the next RecvFrom. The zero time clears it.
	SetRecvDeadline(t time.Time) error

	// LocalAddr returns the bound address of the endpoint.
	LocalAddr() addressing.Value

	// Close releases the endpoint.
	Close() error
}

// StreamListener accepts stream peers, reporting the peer address where the
// family carries one on the wire.
type StreamListener interface {
	Accept() (net.Conn, addressing.Value, error)
	Close() error
}

// Config carries family-independent socket options.
type Config struct {
	DSCP     int       // DSCP value for outgoing packets, 0 to leave unset
	MPTCP    bool      // Enable Multipath TCP on stream dials
	Resolver *Resolver // Locator resolution for the hierarchical family
}

func (c Config) resolver() *Resolver {
	if c.Resolver != nil {
		return c.Resolver
	}
	return defaultResolver
}
