package addressing

import (
	"encoding/hex"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"go_echo_harness/constants"
)

// Principal types understood by the harness. The table is plain process-wide
// state built at startup; nothing initializes it lazily.
var principalTable = map[string]XIDType{
	"ad":     0x10,
	"hid":    0x11,
	"xdp":    0x14,
	"serval": 0x15,
}

var principalNames = map[XIDType]string{}

func init() {
	for name, t := range principalTable {
		principalNames[t] = name
	}
}

func principalName(t XIDType) string {
	if name, ok := principalNames[t]; ok {
		return name
	}
	return "0x" + strconv.FormatUint(uint64(t), 16)
}

// ParseFlat builds a flat address from dotted-quad text and a port string.
// The port is a bare integer conversion with no range check, matching the
// upstream contract.
func ParseFlat(host, port string) (Flat, error) {
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return Flat{}, &FormatError{Input: host, Reason: "not a dotted IPv4 address"}
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return Flat{}, &FormatError{Input: port, Reason: "port is not an integer"}
	}

	var a Flat
	copy(a.Addr[:], ip.To4())
	a.Port = uint16(p)
	return a, nil
}

// ParseHier decodes the textual hierarchical grammar: an optional leading "!"
// line flagging the address as invalid, then one row per line in the form
// <principal>-<40 hex digits>. Grammar violations yield a FormatError,
// validity failures a SemanticError. An address carrying the invalid flag is
// rejected even though it parses and validates; the flag exists precisely so
// a syntactically fine address can be poisoned, and the check must run last.
func ParseHier(raw []byte) (Hier, error) {
	text := strings.TrimSpace(string(raw))

	invalidFlag := false
	if strings.HasPrefix(text, "!") {
		invalidFlag = true
		text = strings.TrimSpace(strings.TrimPrefix(text, "!"))
	}

	var a Hier
	n := 0
	seen := map[Row]bool{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if n == constants.MAX_ADDR_ROWS {
			return Hier{}, &FormatError{Input: text, Reason: "too many rows"}
		}

		row, err := parseRow(line)
		if err != nil {
			return Hier{}, err
		}
		if seen[row] {
			return Hier{}, &SemanticError{Input: text, Reason: "duplicate row " + line}
		}
		seen[row] = true
		a.Rows[n] = row
		n++
	}

	if n == 0 {
		return Hier{}, &SemanticError{Input: text, Reason: "address has no rows"}
	}
	if invalidFlag {
		return Hier{}, &SemanticError{Input: text, Reason: "although valid, address has invalid flag"}
	}
	return a, nil
}

// parseRow decodes a single "<principal>-<hex id>" row.
func parseRow(line string) (Row, error) {
	name, id, found := strings.Cut(line, "-")
	if !found {
		return Row{}, &FormatError{Input: line, Reason: "row is not <principal>-<id>"}
	}

	t, ok := principalTable[name]
	if !ok {
		return Row{}, &SemanticError{Input: line, Reason: "unknown principal " + name}
	}

	raw, err := hex.DecodeString(id)
	if err != nil {
		return Row{}, &FormatError{Input: line, Reason: "identifier is not hex"}
	}
	if len(raw) != constants.XID_SIZE {
		return Row{}, &FormatError{Input: line, Reason: "identifier must be " +
			strconv.Itoa(constants.XID_SIZE) + " bytes"}
	}

	row := Row{Type: t}
	copy(row.ID[:], raw)
	return row, nil
}

// ReadHierFile loads and parses a hierarchical address file. The file holds
// one textual address and is bounded to MAX_ADDR_FILE_SIZE bytes.
func ReadHierFile(path string) (Hier, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hier{}, err
	}
	defer f.Close()

	buf := make([]byte, constants.MAX_ADDR_FILE_SIZE)
	n, err := io.ReadFull(f, buf)
	if err != io.EOF && err != io.ErrUnexpectedEOF {
		if err == nil {
			return Hier{}, &FormatError{Input: path, Reason: "address file too large"}
		}
		return Hier{}, err
	}
	return ParseHier(buf[:n])
}
