package fileio

import (
	"bytes"
	"crypto/sha256"
	"hash/crc32"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// GetFileChecksumSHA256 returns SHA256 checksum of given file
func GetFileChecksumSHA256(file string) []byte {
	handle, err := os.Open(file)
	if err != nil {
		logrus.WithError(err).Error("checksum open failed")
		return make([]byte, 32)
	}
	defer handle.Close()

	hash := sha256.New()
	if _, err := io.CopyBuffer(hash, handle, make([]byte, 64*1024)); err != nil {
		logrus.WithError(err).Error("checksum read failed")
		return make([]byte, 32)
	}

	return hash.Sum(nil)
}

// GetFileChecksumCRC32 returns CRC32 checksum of given file
func GetFileChecksumCRC32(file string) []byte {
	handle, err := os.Open(file)
	if err != nil {
		logrus.WithError(err).Error("checksum open failed")
		return make([]byte, 4)
	}
	defer handle.Close()

	hash := crc32.New(crc32.IEEETable)
	if _, err := io.CopyBuffer(hash, handle, make([]byte, 64*1024)); err != nil {
		logrus.WithError(err).Error("checksum read failed")
		return make([]byte, 4)
	}

	return hash.Sum(nil)
}

// CompareFiles reports whether mirror is byte-identical to source and how many
// bytes the mirror is short. A positive shortfall quantifies checkpoint loss;
// it is an expected outcome, not an error.
func CompareFiles(source, mirror string) (identical bool, missing int64, err error) {
	sinfo, err := os.Stat(source)
	if err != nil {
		return false, 0, err
	}
	minfo, err := os.Stat(mirror)
	if err != nil {
		return false, 0, err
	}

	missing = sinfo.Size() - minfo.Size()
	if missing != 0 {
		return false, missing, nil
	}
	return bytes.Equal(GetFileChecksumSHA256(source), GetFileChecksumSHA256(mirror)), 0, nil
}
