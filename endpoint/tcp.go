package endpoint

import (
	"context"
	"net"

	"golang.org/x/net/ipv4"

	"go_echo_harness/addressing"
)

// dialIPStream connects to a flat peer over TCP. Flat stream clients do not
// bind; the OS picks the local endpoint.
func dialIPStream(peer addressing.Flat, cfg Config) (net.Conn, error) {
	dial := new(net.Dialer)
	dial.SetMultipathTCP(cfg.MPTCP)
	conn, err := dial.Dial("tcp4", peer.String())
	if err != nil {
		return nil, err
	}

	// Always send immediately; the checkpoint protocol is latency bound.
	conn.(*net.TCPConn).SetNoDelay(true)
	if cfg.DSCP > 0 {
		ipv4.NewConn(conn).SetTOS(cfg.DSCP)
	}
	return conn, nil
}

// ipListener wraps a TCP listener, reporting flat peer addresses on accept.
type ipListener struct {
	ln net.Listener
}

// listenIPStream binds a reusable TCP listener at the given flat address.
func listenIPStream(bind addressing.Flat) (*ipListener, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	ln, err := lc.Listen(context.Background(), "tcp4", bind.String())
	if err != nil {
		return nil, err
	}
	return &ipListener{ln: ln}, nil
}

// Accept waits for one stream peer.
func (l *ipListener) Accept() (net.Conn, addressing.Value, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, nil, err
	}
	conn.(*net.TCPConn).SetNoDelay(true)

	tcp := conn.RemoteAddr().(*net.TCPAddr)
	var peer addressing.Flat
	copy(peer.Addr[:], tcp.IP.To4())
	peer.Port = uint16(tcp.Port)
	return conn, peer, nil
}

// Close stops accepting.
func (l *ipListener) Close() error {
	return l.ln.Close()
}
