// Package pipe provides the raw byte relay used outside the checkpointed
// protocol: no chunk boundaries, no verification, just a blocking copy until
// the source runs dry.
package pipe

import (
	"fmt"
	"io"

	"go_echo_harness/constants"
)

// Copy relays bytes from src to dst until src reports a clean end of stream,
// returning the byte count moved. Read errors and short writes abort the run;
// both descriptors are assumed to block.
func Copy(dst io.Writer, src io.Reader) int64 {
	buf := make([]byte, constants.COPY_BUFFER_SIZE)
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			if werr != nil || w != n {
				panic(fmt.Sprintf("pipe: wrote %d of %d bytes: %v", w, n, werr))
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total
		}
		if err != nil {
			panic(fmt.Sprintf("pipe: read failed: %v", err))
		}
	}
}
