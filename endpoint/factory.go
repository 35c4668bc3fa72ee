package endpoint

import (
	"fmt"
	"net"

	"go_echo_harness/addressing"
)

// NewDatagram builds a connectionless endpoint bound for the family of self.
// Flat callers that do not want a fixed address pass the any-address with
// port 0; hierarchical endpoints always bind at their resolved locator.
func NewDatagram(self addressing.Value, cfg Config) (Datagram, error) {
	switch a := self.(type) {
	case addressing.Flat:
		return newIPDatagram(a, cfg)
	case addressing.Hier:
		return newXIPDatagram(a, cfg)
	default:
		return nil, fmt.Errorf("unsupported address value %T", self)
	}
}

// DialStream connects to a stream peer. The flat family dials without
// binding; the hierarchical family binds its own locator and performs the
// address hello, so self must be a hierarchical value there and is ignored
// otherwise.
func DialStream(peer, self addressing.Value, cfg Config) (net.Conn, error) {
	switch p := peer.(type) {
	case addressing.Flat:
		return dialIPStream(p, cfg)
	case addressing.Hier:
		me, ok := self.(addressing.Hier)
		if !ok {
			return nil, fmt.Errorf("hierarchical dial needs a hierarchical local address, got %T", self)
		}
		return dialXIPStream(me, p, cfg)
	default:
		return nil, fmt.Errorf("unsupported address value %T", peer)
	}
}

// ListenStream binds a stream listener at self. Servers always force-bind.
func ListenStream(self addressing.Value, cfg Config) (StreamListener, error) {
	switch a := self.(type) {
	case addressing.Flat:
		return listenIPStream(a)
	case addressing.Hier:
		return listenXIPStream(a, cfg)
	default:
		return nil, fmt.Errorf("unsupported address value %T", self)
	}
}
