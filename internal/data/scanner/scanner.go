package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// LogExt is the extension of per-user event logs.
const LogExt = ".jsonl"

// FileScanner finds per-user event logs in a data directory
type FileScanner struct {
	baseDir string
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{baseDir: baseDir}
}

// Scan returns the paths of all event logs directly under the data directory,
// sorted by name. A missing directory yields no files.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.baseDir))

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), LogExt) {
			continue
		}
		files = append(files, filepath.Join(s.baseDir, entry.Name()))
	}
	sort.Strings(files)

	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d entries, found %d logs",
		time.Since(start), len(entries), len(files)))
	return files, nil
}

// ScanUsers returns the user ids that have an event log, sorted.
func (s *FileScanner) ScanUsers() ([]string, error) {
	files, err := s.Scan()
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(files))
	for _, file := range files {
		base := filepath.Base(file)
		users = append(users, base[:len(base)-len(LogExt)])
	}
	return users, nil
}
