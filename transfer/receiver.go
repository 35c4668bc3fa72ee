package transfer

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"go_echo_harness/addressing"
	"go_echo_harness/constants"
	"go_echo_harness/endpoint"
)

// RecvTimeout bounds the wait for a datagram echo. Datagrams are dropped
// silently by the network, so the bounded wait turns an indefinite hang into
// an observable loss event.
const RecvTimeout = constants.RECV_TIMEOUT_SECONDS * time.Second

// lossMarker emits the operator-visible sign that a checkpoint went missing.
func lossMarker() {
	fmt.Fprint(os.Stderr, ".")
}

// receiveVerified performs one deadline-bounded receive covering an entire
// checkpoint. A timeout is tolerated loss and leaves the mirror untouched. A
// reply from a sender that does not match peer is never loss: it means the
// test or the environment is broken, and the run dies on the spot.
func receiveVerified(ep endpoint.Datagram, peer addressing.Value, mirror io.Writer, expected int) {
	if err := ep.SetRecvDeadline(time.Now().Add(RecvTimeout)); err != nil {
		logrus.WithError(err).Fatal("arming receive deadline failed")
	}

	buf := make([]byte, expected)
	n, from, err := ep.RecvFrom(buf)
	ep.SetRecvDeadline(time.Time{})
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			lossMarker()
			return
		}
		logrus.WithError(err).Fatal("datagram receive failed")
	}

	if !addressing.Match(from, peer) {
		logrus.WithFields(logrus.Fields{
			"from":     from.String(),
			"expected": peer.String(),
		}).Panic("echo reply from unexpected peer")
	}

	writeMirror(mirror, buf[:n])
}

// receiveExact accumulates exactly expected bytes from the stream. A
// connection that closes or errors before the checkpoint completes is
// tolerated loss; nothing partial ever reaches the mirror.
func receiveExact(conn io.Reader, mirror io.Writer, expected int) {
	buf := make([]byte, expected)
	if _, err := io.ReadFull(conn, buf); err != nil {
		lossMarker()
		return
	}
	writeMirror(mirror, buf)
}

func writeMirror(mirror io.Writer, b []byte) {
	if _, err := mirror.Write(b); err != nil {
		logrus.WithError(err).Fatal("mirror write failed")
	}
}
