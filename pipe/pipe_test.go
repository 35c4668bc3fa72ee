package pipe

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyMovesEverything(t *testing.T) {
	content := make([]byte, 10000)
	_, err := rand.Read(content)
	require.NoError(t, err)

	var dst bytes.Buffer
	moved := Copy(&dst, bytes.NewReader(content))

	assert.Equal(t, int64(len(content)), moved)
	assert.Equal(t, content, dst.Bytes())
}

func TestCopyEmptySource(t *testing.T) {
	var dst bytes.Buffer
	assert.Equal(t, int64(0), Copy(&dst, bytes.NewReader(nil)))
	assert.Zero(t, dst.Len())
}

type failingWriter struct{}

func (failingWriter) Write(b []byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestCopyWriteFailureFatal(t *testing.T) {
	require.Panics(t, func() {
		Copy(failingWriter{}, bytes.NewReader([]byte("data")))
	})
}

func TestLZ4RoundTrip(t *testing.T) {
	content := bytes.Repeat([]byte("compressible enough "), 500)

	var compressed bytes.Buffer
	moved := CopyCompress(&compressed, bytes.NewReader(content))
	assert.Equal(t, int64(len(content)), moved)
	assert.Less(t, compressed.Len(), len(content))

	var restored bytes.Buffer
	CopyDecompress(&restored, &compressed)
	assert.Equal(t, content, restored.Bytes())
}
