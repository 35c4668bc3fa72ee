package transfer

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_echo_harness/addressing"
	"go_echo_harness/endpoint"
	"go_echo_harness/fileio"
)

// echoEndpoint fakes the far side of the datagram protocol: sends accumulate
// into the current batch and each checkpoint receive answers with the whole
// batch, as the real echo server would after a flush mark. Individual
// checkpoints can be scripted to vanish or to arrive from a forged sender.
type echoEndpoint struct {
	peer  addressing.Value
	batch []byte
	lose  map[int]bool
	forge map[int]addressing.Value
	recvs int
}

var _ endpoint.Datagram = (*echoEndpoint)(nil)

func (e *echoEndpoint) Send(b []byte, to addressing.Value) error {
	e.batch = append(e.batch, b...)
	return nil
}

func (e *echoEndpoint) RecvFrom(b []byte) (int, addressing.Value, error) {
	k := e.recvs
	e.recvs++
	out := e.batch
	e.batch = nil

	if e.lose[k] {
		return 0, nil, timeoutError{}
	}
	from := e.peer
	if forged, ok := e.forge[k]; ok {
		from = forged
	}
	return copy(b, out), from, nil
}

func (e *echoEndpoint) SetRecvDeadline(time.Time) error { return nil }
func (e *echoEndpoint) LocalAddr() addressing.Value     { return e.peer }
func (e *echoEndpoint) Close() error                    { return nil }

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func flatPeer(t *testing.T, host, port string) addressing.Value {
	t.Helper()
	a, err := addressing.ParseFlat(host, port)
	require.NoError(t, err)
	return a
}

// writeSource drops size random bytes into a fresh file and returns its path
// and content.
func writeSource(t *testing.T, size int) (string, []byte) {
	t.Helper()
	content := make([]byte, size)
	_, err := rand.Read(content)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "source.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path, content
}

func readMirror(t *testing.T, source string) []byte {
	t.Helper()
	b, err := os.ReadFile(fileio.MirrorPath(source))
	require.NoError(t, err)
	return b
}

func TestDatagramRoundTripNoLoss(t *testing.T) {
	peer := flatPeer(t, "127.0.0.1", "9000")
	ep := &echoEndpoint{peer: peer}
	path, content := writeSource(t, 10000)

	s := &Session{ChunkSize: 512, Interval: 3}
	require.NoError(t, s.SendFileDatagram(ep, peer, path))

	assert.Equal(t, content, readMirror(t, path))
}

func TestDatagramPartialFinalBatchFlushed(t *testing.T) {
	peer := flatPeer(t, "127.0.0.1", "9000")
	ep := &echoEndpoint{peer: peer}
	path, content := writeSource(t, 10)

	// Interval far larger than the file: everything lands in one final
	// checkpoint.
	s := &Session{ChunkSize: 4, Interval: 100}
	require.NoError(t, s.SendFileDatagram(ep, peer, path))

	assert.Equal(t, content, readMirror(t, path))
	assert.Equal(t, 1, ep.recvs, "a 10-byte file must produce exactly one checkpoint")
}

func TestDatagramLossIsolatesCheckpoint(t *testing.T) {
	peer := flatPeer(t, "127.0.0.1", "9000")
	ep := &echoEndpoint{peer: peer, lose: map[int]bool{1: true}}

	// 500 bytes at 100-byte chunks, 2 per checkpoint: batches of 200, 200
	// and a final 100.
	path, content := writeSource(t, 500)
	s := &Session{ChunkSize: 100, Interval: 2}
	require.NoError(t, s.SendFileDatagram(ep, peer, path))

	want := append(append([]byte{}, content[:200]...), content[400:]...)
	assert.Equal(t, want, readMirror(t, path))
	assert.Equal(t, 3, ep.recvs)
}

func TestDatagramWrongPeerFatal(t *testing.T) {
	peer := flatPeer(t, "127.0.0.1", "9000")
	forged := flatPeer(t, "127.0.0.1", "9999")
	ep := &echoEndpoint{peer: peer, forge: map[int]addressing.Value{0: forged}}
	path, _ := writeSource(t, 600)

	s := &Session{ChunkSize: 100, Interval: 2}
	require.Panics(t, func() { s.SendFileDatagram(ep, peer, path) })
}

func TestDatagramHierPathIrrelevantToIdentity(t *testing.T) {
	// The echo arrives from an address sharing only the final row with the
	// expected peer; that is the same identity, not a forgery.
	peer, err := addressing.ParseHier([]byte(
		"ad-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n" +
			"hid-cccccccccccccccccccccccccccccccccccccccc"))
	require.NoError(t, err)
	rerouted, err := addressing.ParseHier([]byte(
		"ad-bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n" +
			"hid-cccccccccccccccccccccccccccccccccccccccc"))
	require.NoError(t, err)

	ep := &echoEndpoint{peer: peer, forge: map[int]addressing.Value{0: rerouted}}
	path, content := writeSource(t, 300)

	s := &Session{ChunkSize: 100, Interval: 3}
	require.NoError(t, s.SendFileDatagram(ep, peer, path))
	assert.Equal(t, content, readMirror(t, path))
}

func TestDatagramHookFiresPerCheckpoint(t *testing.T) {
	peer := flatPeer(t, "127.0.0.1", "9000")
	ep := &echoEndpoint{peer: peer}
	path, _ := writeSource(t, 500)

	fired := 0
	s := &Session{ChunkSize: 100, Interval: 2, Hook: func() { fired++ }}
	require.NoError(t, s.SendFileDatagram(ep, peer, path))

	assert.Equal(t, 3, fired, "hook precedes every receive, final partial batch included")
	assert.Equal(t, 3, ep.recvs)
}

func TestDatagramRerunDeterministic(t *testing.T) {
	peer := flatPeer(t, "127.0.0.1", "9000")
	path, _ := writeSource(t, 5000)
	s := &Session{ChunkSize: 256, Interval: 4}

	require.NoError(t, s.SendFileDatagram(&echoEndpoint{peer: peer}, peer, path))
	first := readMirror(t, path)

	require.NoError(t, s.SendFileDatagram(&echoEndpoint{peer: peer}, peer, path))
	assert.Equal(t, first, readMirror(t, path))
}

func TestMissingSourceFileFails(t *testing.T) {
	peer := flatPeer(t, "127.0.0.1", "9000")
	s := &Session{ChunkSize: 100, Interval: 2}
	err := s.SendFileDatagram(&echoEndpoint{peer: peer}, peer,
		filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
