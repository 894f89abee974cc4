package util

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileInfo identifies a version of an on-disk event log.
type FileInfo struct {
	ModTime int64  // Modification time, Unix nanoseconds
	Size    int64  // File size in bytes
	Inode   uint64 // Inode number, changes when the log is rewritten via rename
}

// GetFileInfo stats path. Size and mtime come from os.Stat; the inode is
// read with unix.Stat, whose Stat_t layout differs between Unix platforms
// only in the timestamp fields.
func GetFileInfo(path string) (*FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &FileInfo{
		ModTime: info.ModTime().UnixNano(),
		Size:    info.Size(),
		Inode:   uint64(st.Ino),
	}, nil
}

// Same reports whether two infos describe the same file version.
func (fi *FileInfo) Same(other *FileInfo) bool {
	if fi == nil || other == nil {
		return false
	}
	return fi.Inode == other.Inode && fi.Size == other.Size && fi.ModTime == other.ModTime
}
