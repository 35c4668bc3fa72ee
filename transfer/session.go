// Package transfer implements the checkpointed send/echo protocol: a source
// file goes out in fixed-size chunks, and after every checkpoint interval the
// peer's echo of everything sent since the last checkpoint is received,
// verified and appended to a mirror file. Failures split into exactly two
// tiers: invariant violations are fatal, a missing echo is tolerated loss.
package transfer

import (
	"fmt"
	"io"
	"net"
	"os"

	"github.com/sirupsen/logrus"

	"go_echo_harness/addressing"
	"go_echo_harness/endpoint"
	"go_echo_harness/fileio"
)

// PreReceive runs immediately before each checkpoint receive, giving the
// protocol a chance to prod the remote side (the datagram flush mark). A nil
// hook is legal.
type PreReceive func()

// Session drives one checkpointed file transfer. It lives exactly as long as
// the send loop and owns no resources beyond it.
type Session struct {
	ChunkSize int
	Interval  int
	Hook      PreReceive
}

// SendFileDatagram transfers the file at path to peer over a connectionless
// endpoint, expecting each checkpoint to be echoed back by the peer as one
// datagram. Lost checkpoints are tolerated; an echo from any other sender is
// fatal.
func (s *Session) SendFileDatagram(ep endpoint.Datagram, peer addressing.Value, path string) error {
	return s.processFile(path,
		func(chunk []byte) {
			if err := ep.Send(chunk, peer); err != nil {
				logrus.WithError(err).Fatal("datagram send failed")
			}
		},
		func(mirror *os.File, expected int) {
			receiveVerified(ep, peer, mirror, expected)
		})
}

// SendFileStream transfers the file at path over an established stream
// connection. Short writes violate transfer integrity and abort the run; an
// early-closed connection during a receive is tolerated loss.
func (s *Session) SendFileStream(conn net.Conn, path string) error {
	return s.processFile(path,
		func(chunk []byte) {
			n, err := conn.Write(chunk)
			if err != nil || n != len(chunk) {
				panic(fmt.Sprintf("transfer: stream send wrote %d of %d bytes: %v", n, len(chunk), err))
			}
		},
		func(mirror *os.File, expected int) {
			receiveExact(conn, mirror, expected)
		})
}

// processFile is the shared checkpoint loop. The checkpoint byte count always
// equals the sum of the chunk sends since the last receive, and both counters
// reset after every receive whether or not the echo arrived.
func (s *Session) processFile(path string, send func([]byte), receive func(*os.File, int)) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	mirror, err := fileio.CreateMirror(path)
	if err != nil {
		source.Close()
		return err
	}

	buf := make([]byte, s.ChunkSize)
	count, sent := 0, 0
	eof := false
	for !eof {
		n, rerr := source.Read(buf)
		switch rerr {
		case nil:
		case io.EOF:
			// End of file is signalled by the reader, never inferred
			// from a zero byte count.
			eof = true
		default:
			return rerr
		}

		if n > 0 {
			send(buf[:n])
			count++
			sent += n
		}
		if count == s.Interval {
			s.fireHook()
			receive(mirror, sent)
			count, sent = 0, 0
		}
	}

	// Flush a partial final batch.
	if count > 0 {
		s.fireHook()
		receive(mirror, sent)
	}

	if err := mirror.Close(); err != nil {
		return err
	}
	return source.Close()
}

func (s *Session) fireHook() {
	if s.Hook != nil {
		s.Hook()
	}
}
