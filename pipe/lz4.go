package pipe

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// CopyCompress relays src into dst as an LZ4 frame stream, returning the
// uncompressed byte count moved.
func CopyCompress(dst io.Writer, src io.Reader) int64 {
	zw := lz4.NewWriter(dst)
	total := Copy(zw, src)
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return total
}

// CopyDecompress relays an LZ4 frame stream from src into dst, returning the
// uncompressed byte count moved.
func CopyDecompress(dst io.Writer, src io.Reader) int64 {
	return Copy(dst, lz4.NewReader(src))
}
