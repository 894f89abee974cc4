package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileScannerScanEmptyDirectory(t *testing.T) {
	files, err := NewFileScanner(t.TempDir()).Scan()

	require.NoError(t, err)
	assert.Empty(t, files, "Empty directory should return no files")
}

func TestFileScannerScanNonExistentDirectory(t *testing.T) {
	files, err := NewFileScanner(filepath.Join(t.TempDir(), "missing")).Scan()

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileScannerScanUsers(t *testing.T) {
	tempDir := t.TempDir()

	testFiles := []string{
		"carol.jsonl",
		"alice.jsonl",
		"bob.JSONL",
		"alice.json",
		"sleep.db",
		"notes.txt",
		"nested/dave.jsonl",
	}
	for _, name := range testFiles {
		path := filepath.Join(tempDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))
	}

	files, err := NewFileScanner(tempDir).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(tempDir, "alice.jsonl"),
		filepath.Join(tempDir, "bob.JSONL"),
		filepath.Join(tempDir, "carol.jsonl"),
	}, files)

	users, err := NewFileScanner(tempDir).ScanUsers()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, users)
}
