package endpoint

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sync"

	"go_echo_harness/addressing"
)

// Resolver maps the identity row of a hierarchical address to an underlay
// locator (host:port). Unregistered addresses resolve deterministically onto
// a loopback port derived from the identity row, so two processes that agree
// on an address file agree on the locator without any coordination.
type Resolver struct {
	mu     sync.RWMutex
	static map[addressing.Row]string
}

var defaultResolver = NewResolver()

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{static: make(map[addressing.Row]string)}
}

// Register pins an explicit locator for the given address, overriding the
// derived mapping.
func (r *Resolver) Register(a addressing.Hier, hostport string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.static[a.LastRow()] = hostport
}

// Locate returns the underlay locator for a hierarchical address.
func (r *Resolver) Locate(a addressing.Hier) string {
	row := a.LastRow()

	r.mu.RLock()
	pinned, ok := r.static[row]
	r.mu.RUnlock()
	if ok {
		return pinned
	}

	return fmt.Sprintf("127.0.0.1:%d", derivePort(row))
}

// derivePort hashes the identity row into the dynamic port range.
func derivePort(row addressing.Row) int {
	hash := crc32.New(crc32.IEEETable)
	var t [4]byte
	binary.LittleEndian.PutUint32(t[:], uint32(row.Type))
	hash.Write(t[:])
	hash.Write(row.ID[:])
	return 20000 + int(hash.Sum32()%40000)
}
