// Package addressing models the two peer address families the harness speaks:
// a flat IPv4/port pair and a hierarchical sequence of typed entry identifiers.
// Peer identity matching is the only address logic the transfer protocol needs,
// so everything else here exists to build, encode and compare values safely.
package addressing

import (
	"encoding/hex"
	"fmt"
	"strings"

	"go_echo_harness/constants"
)

// Family tags an address value with the scheme it belongs to.
type Family uint8

const (
	FamilyIP  Family = 1 // flat IPv4 + port
	FamilyXIP Family = 2 // hierarchical rows of typed identifiers
)

// String returns the CLI token for the family.
func (f Family) String() string {
	switch f {
	case FamilyIP:
		return "ip"
	case FamilyXIP:
		return "xip"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

// XIDType is the principal type of a hierarchical row. The zero value is the
// sentinel marking the end of an address.
type XIDType uint32

// XIDTypeNone marks a row as unused. Rows past the first sentinel are garbage
// and must never be inspected.
const XIDTypeNone XIDType = 0

// Row is one step of a hierarchical address: an entry identifier typed by its
// principal.
type Row struct {
	Type XIDType
	ID   [constants.XID_SIZE]byte
}

// IsSentinel reports whether the row terminates the address.
func (r Row) IsSentinel() bool {
	return r.Type == XIDTypeNone
}

// Value is a peer address in one of the two supported families.
type Value interface {
	Family() Family
	String() string
}

// Flat is a fixed-size network/port endpoint. Identity is whole-value byte
// equality.
type Flat struct {
	Addr [4]byte
	Port uint16
}

// Family implements Value.
func (Flat) Family() Family { return FamilyIP }

// String renders the address as dotted quad plus port.
func (a Flat) String() string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Port)
}

// Hier is a variable-depth hierarchical address. The effective length is the
// row count before the first sentinel; identity is carried solely by the last
// effective row.
type Hier struct {
	Rows [constants.MAX_ADDR_ROWS]Row
}

// Family implements Value.
func (Hier) Family() Family { return FamilyXIP }

// EffectiveLen counts the rows before the first sentinel.
func (a Hier) EffectiveLen() int {
	for i, r := range a.Rows {
		if r.IsSentinel() {
			return i
		}
	}
	return len(a.Rows)
}

// LastRow returns the identity row of the address. An address with no
// effective rows has no identity; asking for one is a programming error.
func (a Hier) LastRow() Row {
	n := a.EffectiveLen()
	if n == 0 {
		panic("addressing: hierarchical address has no effective rows")
	}
	return a.Rows[n-1]
}

// String renders the effective rows in the textual row grammar.
func (a Hier) String() string {
	n := a.EffectiveLen()
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		r := a.Rows[i]
		parts = append(parts, principalName(r.Type)+"-"+hex.EncodeToString(r.ID[:]))
	}
	return strings.Join(parts, "\n")
}

// Match reports whether a and b identify the same peer. Flat addresses compare
// as whole values; hierarchical addresses compare only their last effective
// rows, since the intermediate path is irrelevant to peer identity. Values
// from different families must never meet here: that is a harness bug, not a
// mismatch, so it panics instead of returning false.
func Match(a, b Value) bool {
	if a.Family() != b.Family() {
		panic(fmt.Sprintf("addressing: cross-family match: %s vs %s", a.Family(), b.Family()))
	}

	switch x := a.(type) {
	case Flat:
		return x == b.(Flat)
	case Hier:
		return x.LastRow() == b.(Hier).LastRow()
	default:
		panic(fmt.Sprintf("addressing: unknown address value %T", a))
	}
}
