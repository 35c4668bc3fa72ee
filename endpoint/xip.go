package endpoint

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go_echo_harness/addressing"
	"go_echo_harness/constants"
)

// maxAddrHeader bounds an encoded hierarchical address on the wire.
const maxAddrHeader = 2 + constants.MAX_ADDR_ROWS*(4+constants.XID_SIZE)

// XIPDatagram is a hierarchical-family connectionless endpoint. The kernel has
// no notion of hierarchical addresses, so frames travel over a UDP underlay
// with the sender's encoded address prefixed to every payload; the underlay
// locator of a peer comes from the resolver.
type XIPDatagram struct {
	conn     *net.UDPConn
	self     addressing.Hier
	selfHdr  []byte
	resolver *Resolver
}

// newXIPDatagram binds the endpoint at the underlay locator of its own
// address. The hierarchical family always binds explicitly before use.
func newXIPDatagram(self addressing.Hier, cfg Config) (*XIPDatagram, error) {
	locator := cfg.resolver().Locate(self)
	addr, err := net.ResolveUDPAddr("udp4", locator)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, err
	}

	return &XIPDatagram{
		conn:     conn,
		self:     self,
		selfHdr:  addressing.EncodeHier(self),
		resolver: cfg.resolver(),
	}, nil
}

// Send prefixes the local address and transmits one underlay datagram to the
// peer's locator.
func (d *XIPDatagram) Send(b []byte, to addressing.Value) error {
	peer, ok := to.(addressing.Hier)
	if !ok {
		panic("endpoint: xip endpoint used with non-hierarchical address")
	}

	locator, err := net.ResolveUDPAddr("udp4", d.resolver.Locate(peer))
	if err != nil {
		return err
	}

	frame := make([]byte, 0, len(d.selfHdr)+len(b))
	frame = append(frame, d.selfHdr...)
	frame = append(frame, b...)
	_, err = d.conn.WriteToUDP(frame, locator)
	return err
}

// RecvFrom reads one underlay datagram, strips the address header and reports
// the sender's hierarchical address.
func (d *XIPDatagram) RecvFrom(b []byte) (int, addressing.Value, error) {
	frame := make([]byte, maxAddrHeader+len(b))
	n, _, err := d.conn.ReadFromUDP(frame)
	if err != nil {
		return 0, nil, err
	}

	from, consumed, err := addressing.DecodeHier(frame[:n])
	if err != nil {
		return 0, nil, fmt.Errorf("malformed overlay frame: %w", err)
	}
	return copy(b, frame[consumed:n]), from, nil
}

// SetRecvDeadline bounds the next RecvFrom.
func (d *XIPDatagram) SetRecvDeadline(t time.Time) error {
	return d.conn.SetReadDeadline(t)
}

// LocalAddr returns the endpoint's own hierarchical address.
func (d *XIPDatagram) LocalAddr() addressing.Value {
	return d.self
}

// UnderlayAddr exposes the bound UDP address, for locator pinning.
func (d *XIPDatagram) UnderlayAddr() net.Addr {
	return d.conn.LocalAddr()
}

// Close releases the underlay socket.
func (d *XIPDatagram) Close() error {
	return d.conn.Close()
}

// dialXIPStream connects to the locator of the peer's identity row and
// performs the address hello: each side sends its encoded address before any
// payload flows. The hierarchical family always binds, so the dialer pins its
// local endpoint to its own locator.
func dialXIPStream(self, peer addressing.Hier, cfg Config) (net.Conn, error) {
	local, err := net.ResolveTCPAddr("tcp4", cfg.resolver().Locate(self))
	if err != nil {
		return nil, err
	}

	dial := &net.Dialer{LocalAddr: local}
	conn, err := dial.Dial("tcp4", cfg.resolver().Locate(peer))
	if err != nil {
		return nil, err
	}
	conn.(*net.TCPConn).SetNoDelay(true)

	if _, err := conn.Write(addressing.EncodeHier(self)); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := readHello(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// xipListener accepts hierarchical stream peers over a TCP underlay.
type xipListener struct {
	ln      net.Listener
	selfHdr []byte
}

// listenXIPStream binds a TCP listener at the underlay locator of self.
// Address reuse is a flat-family option only, so none is applied here.
func listenXIPStream(self addressing.Hier, cfg Config) (*xipListener, error) {
	ln, err := net.Listen("tcp4", cfg.resolver().Locate(self))
	if err != nil {
		return nil, err
	}
	return &xipListener{ln: ln, selfHdr: addressing.EncodeHier(self)}, nil
}

// Accept waits for one peer and completes the address hello.
func (l *xipListener) Accept() (net.Conn, addressing.Value, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, nil, err
	}
	conn.(*net.TCPConn).SetNoDelay(true)

	peer, err := readHello(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if _, err := conn.Write(l.selfHdr); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, peer, nil
}

// Close stops accepting.
func (l *xipListener) Close() error {
	return l.ln.Close()
}

// readHello reads one encoded hierarchical address off the stream.
func readHello(conn io.Reader) (addressing.Hier, error) {
	hdr := make([]byte, 2)
	if _, err := io.ReadFull(conn, hdr); err != nil {
		return addressing.Hier{}, err
	}
	rows := int(hdr[1])
	if rows == 0 || rows > constants.MAX_ADDR_ROWS {
		return addressing.Hier{}, errors.New("hello carries bad row count")
	}

	body := make([]byte, rows*(4+constants.XID_SIZE))
	if _, err := io.ReadFull(conn, body); err != nil {
		return addressing.Hier{}, err
	}
	addr, _, err := addressing.DecodeHier(append(hdr, body...))
	return addr, err
}
