package fileio

import (
	"os"

	"go_echo_harness/constants"
)

// MirrorPath names the mirror file for a source path.
func MirrorPath(source string) string {
	return source + constants.MIRROR_SUFFIX
}

// CreateMirror creates (or truncates) the mirror file for a source path.
func CreateMirror(source string) (*os.File, error) {
	return os.Create(MirrorPath(source))
}
