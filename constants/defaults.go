package constants

// Title is shown in CLI help output.
const Title = "Checkpointed echo transfer harness"

const (
	MIRROR_SUFFIX        = "_echo"   // Appended to the source path to name the mirror file
	DEFAULT_CHUNK_SIZE   = 1024      // Bytes read and sent per chunk
	DEFAULT_CHECKPOINT   = 4         // Chunks sent before an echo is expected
	RECV_TIMEOUT_SECONDS = 2         // Bounded wait for a datagram echo
	MAX_ADDR_FILE_SIZE   = 4 * 1024  // Upper bound for hierarchical address files
	MAX_ADDR_ROWS        = 8         // Rows in a hierarchical address
	XID_SIZE             = 20        // Entry identifier length in bytes
	COPY_BUFFER_SIZE     = 2048      // Raw pipe copier buffer
	SERVER_RECV_BUFFER   = 64 * 1024 // Largest datagram the echo server accepts
	DEFAULT_PORT         = 8000      // Default server port
	DEFAULT_DSCP         = 0x0A      // QoS for high throughput
)
