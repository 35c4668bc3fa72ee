package endpoint

import (
	"context"
	"net"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"go_echo_harness/addressing"
)

// IPDatagram is a flat-family connectionless endpoint over UDP.
type IPDatagram struct {
	conn *net.UDPConn
}

// reuseAddr lets the kernel reuse the socket address so the harness can run
// twice in a row without waiting for the (ip, port) tuple to time out. Applied
// to flat-family sockets only.
func reuseAddr(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return serr
}

// newIPDatagram binds a UDP socket at the given flat address. Clients pass
// the any-address with port 0 to obtain a stable ephemeral endpoint.
func newIPDatagram(bind addressing.Flat, cfg Config) (*IPDatagram, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	pc, err := lc.ListenPacket(context.Background(), "udp4", bind.String())
	if err != nil {
		return nil, err
	}

	conn := pc.(*net.UDPConn)
	if cfg.DSCP > 0 {
		// NOTE: On Windows by default the value will not be applied.
		ipv4.NewPacketConn(conn).SetTOS(cfg.DSCP)
	}
	return &IPDatagram{conn: conn}, nil
}

// Send transmits b as one datagram to the flat peer address.
func (d *IPDatagram) Send(b []byte, to addressing.Value) error {
	peer, ok := to.(addressing.Flat)
	if !ok {
		panic("endpoint: ip endpoint used with non-flat address")
	}
	_, err := d.conn.WriteToUDP(b, flatToUDP(peer))
	return err
}

// RecvFrom reads one datagram, reporting the sender's flat address.
func (d *IPDatagram) RecvFrom(b []byte) (int, addressing.Value, error) {
	n, src, err := d.conn.ReadFromUDP(b)
	if err != nil {
		return 0, nil, err
	}
	return n, udpToFlat(src), nil
}

// SetRecvDeadline bounds the next RecvFrom.
func (d *IPDatagram) SetRecvDeadline(t time.Time) error {
	return d.conn.SetReadDeadline(t)
}

// LocalAddr returns the bound flat address.
func (d *IPDatagram) LocalAddr() addressing.Value {
	return udpToFlat(d.conn.LocalAddr().(*net.UDPAddr))
}

// Close releases the socket.
func (d *IPDatagram) Close() error {
	return d.conn.Close()
}

func flatToUDP(a addressing.Flat) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3]), Port: int(a.Port)}
}

func udpToFlat(a *net.UDPAddr) addressing.Flat {
	var f addressing.Flat
	copy(f.Addr[:], a.IP.To4())
	f.Port = uint16(a.Port)
	return f
}
