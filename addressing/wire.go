package addressing

import (
	"bytes"
	"encoding/binary"
	"errors"

	"go_echo_harness/constants"
)

// wireHeader prefixes an encoded hierarchical address on the overlay wire.
type wireHeader struct {
	Family  uint8
	NumRows uint8
	// Followed by NumRows fixed-size rows.
}

// EncodeHier serializes the effective rows of a hierarchical address for the
// overlay wire. Garbage rows past the sentinel are never encoded.
func EncodeHier(a Hier) []byte {
	n := a.EffectiveLen()
	buffer := bytes.NewBuffer(make([]byte, 0, 2+n*binary.Size(Row{})))
	binary.Write(buffer, binary.LittleEndian, wireHeader{
		Family:  uint8(FamilyXIP),
		NumRows: uint8(n),
	})
	binary.Write(buffer, binary.LittleEndian, a.Rows[:n])
	return buffer.Bytes()
}

// DecodeHier decodes an encoded hierarchical address from the front of b,
// returning the address and the number of bytes consumed.
func DecodeHier(b []byte) (Hier, int, error) {
	var hdr wireHeader
	buffer := bytes.NewBuffer(b)
	if err := binary.Read(buffer, binary.LittleEndian, &hdr); err != nil {
		return Hier{}, 0, errors.New("short address header")
	}
	if hdr.Family != uint8(FamilyXIP) {
		return Hier{}, 0, errors.New("encoded address is not hierarchical")
	}
	if hdr.NumRows == 0 || int(hdr.NumRows) > constants.MAX_ADDR_ROWS {
		return Hier{}, 0, errors.New("encoded address has bad row count")
	}

	var a Hier
	if err := binary.Read(buffer, binary.LittleEndian, a.Rows[:hdr.NumRows]); err != nil {
		return Hier{}, 0, errors.New("truncated address rows")
	}
	consumed := 2 + int(hdr.NumRows)*binary.Size(Row{})
	return a, consumed, nil
}
