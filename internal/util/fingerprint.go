package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const fingerprintWindow = 2048

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CalculateFileFingerprint hashes the first and last 2KB of a file. Event logs
// are append-only, so new check-ins always change the tail.
func CalculateFileFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}

	size := stat.Size()
	hash := crc32.New(castagnoli)

	head := size
	if head > fingerprintWindow {
		head = fingerprintWindow
	}
	if _, err := io.CopyN(hash, file, head); err != nil {
		return "", err
	}

	if size > fingerprintWindow {
		tail := size - fingerprintWindow
		if tail > fingerprintWindow {
			tail = fingerprintWindow
		}
		if _, err := file.Seek(-tail, io.SeekEnd); err != nil {
			return "", err
		}
		if _, err := io.CopyN(hash, file, tail); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%08x-%d", hash.Sum32(), size), nil
}
