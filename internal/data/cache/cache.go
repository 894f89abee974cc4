package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
	MissReasonPath
)

// fingerprintSkipAge is how old a log must be before the content
// fingerprint check is skipped and stat data alone is trusted.
const fingerprintSkipAge = 48 * time.Hour

// Entry is a memoized reconcile result tied to one version of a user's log file.
type Entry struct {
	UserID             string                `json:"user_id"`
	FilePath           string                `json:"file_path"`
	Inode              uint64                `json:"inode"`
	FileSize           int64                 `json:"file_size"`
	LastModified       int64                 `json:"last_modified"`
	ContentFingerprint string                `json:"content_fingerprint"`
	CachedAt           time.Time             `json:"cached_at"`
	Result             model.ReconcileResult `json:"result"`
}

type CacheResult struct {
	Entry      *Entry
	Found      bool
	MissReason CacheMissReason
}

type Cache interface {
	Get(userID, logPath string) CacheResult
	Set(userID, logPath string, result model.ReconcileResult) error
	Clear() error
	Preload() error
}

type FileCache struct {
	baseDir     string
	mu          sync.Mutex
	memoryCache map[string]*Entry
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*Entry),
	}, nil
}

func (c *FileCache) cachePath(userID string) string {
	return filepath.Join(c.baseDir, userID+".json")
}

// Get returns the memoized result for userID if logPath has not changed
// since it was stored.
func (c *FileCache) Get(userID, logPath string) CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.memoryCache[userID]; exists {
		if ret := validateEntry(entry, logPath); ret.cached {
			return CacheResult{Entry: entry, Found: true, MissReason: MissReasonNone}
		}
		delete(c.memoryCache, userID)
	}

	return c.getFromFile(userID, logPath)
}

func (c *FileCache) getFromFile(userID, logPath string) CacheResult {
	entry, err := readEntry(c.cachePath(userID))
	if os.IsNotExist(err) {
		return CacheResult{MissReason: MissReasonNotFound}
	}
	if err != nil {
		util.LogDebugf("Failed to read cache for %s: %v", userID, err)
		return CacheResult{MissReason: MissReasonError}
	}

	if ret := validateEntry(entry, logPath); !ret.cached {
		return CacheResult{MissReason: ret.reason}
	}

	c.memoryCache[userID] = entry
	return CacheResult{Entry: entry, Found: true, MissReason: MissReasonNone}
}

func readEntry(path string) (*Entry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := sonic.Unmarshal(content, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

type validateResult struct {
	cached bool
	reason CacheMissReason
}

func validateEntry(entry *Entry, logPath string) validateResult {
	if entry.FilePath != logPath {
		return validateResult{reason: MissReasonPath}
	}

	currentInfo, err := util.GetFileInfo(logPath)
	if err != nil {
		util.LogDebugf("Cache validation failed for %s: unable to get file info: %v", logPath, err)
		return validateResult{reason: MissReasonError}
	}

	if currentInfo.Inode != entry.Inode {
		util.LogDebugf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			logPath, entry.Inode, currentInfo.Inode)
		return validateResult{reason: MissReasonInode}
	}
	if currentInfo.Size != entry.FileSize {
		util.LogDebugf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			logPath, entry.FileSize, currentInfo.Size)
		return validateResult{reason: MissReasonSize}
	}
	if currentInfo.ModTime != entry.LastModified {
		util.LogDebugf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			logPath, entry.LastModified, currentInfo.ModTime)
		return validateResult{reason: MissReasonModTime}
	}

	if time.Since(time.Unix(0, currentInfo.ModTime)) > fingerprintSkipAge {
		return validateResult{cached: true}
	}

	if entry.ContentFingerprint == "" {
		util.LogDebugf("Cache invalidated for %s: no fingerprint in cached data", logPath)
		return validateResult{reason: MissReasonNoFingerprint}
	}

	fingerprint, err := util.CalculateFileFingerprint(logPath)
	if err != nil {
		util.LogDebugf("Cache invalidated for %s: unable to calculate fingerprint: %v", logPath, err)
		return validateResult{reason: MissReasonNoFingerprint}
	}
	if fingerprint != entry.ContentFingerprint {
		util.LogDebugf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			logPath, entry.ContentFingerprint, fingerprint)
		return validateResult{reason: MissReasonFingerprint}
	}
	return validateResult{cached: true}
}

// Set stores result for userID, stamped with the current state of logPath.
func (c *FileCache) Set(userID, logPath string, result model.ReconcileResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fileInfo, err := util.GetFileInfo(logPath)
	if err != nil {
		return err
	}

	entry := &Entry{
		UserID:       userID,
		FilePath:     logPath,
		Inode:        fileInfo.Inode,
		FileSize:     fileInfo.Size,
		LastModified: fileInfo.ModTime,
		CachedAt:     time.Now(),
		Result:       result,
	}
	if fingerprint, err := util.CalculateFileFingerprint(logPath); err == nil {
		entry.ContentFingerprint = fingerprint
	}

	content, err := sonic.ConfigStd.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := os.WriteFile(c.cachePath(userID), content, 0644); err != nil {
		return err
	}

	c.memoryCache[userID] = entry
	return nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*Entry)

	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".json" {
			os.Remove(path)
		}
		return nil
	})
}

// Preload loads every cache file into memory. Entries are validated lazily
// on Get, since the log path they belong to is only known then.
func (c *FileCache) Preload() error {
	var cacheFiles []string
	err := filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			cacheFiles = append(cacheFiles, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan cache directory: %w", err)
	}

	if len(cacheFiles) == 0 {
		util.LogDebug("Cache directory is empty, skipping preload")
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(cacheFiles) {
		numWorkers = len(cacheFiles)
	}

	filesChan := make(chan string, len(cacheFiles))
	resultsChan := make(chan preloadResult, len(cacheFiles))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go preloadWorker(filesChan, resultsChan, &wg)
	}
	for _, file := range cacheFiles {
		filesChan <- file
	}
	close(filesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	loaded, failed := 0, 0
	c.mu.Lock()
	for result := range resultsChan {
		if result.err != nil {
			failed++
			util.LogWarnf("Failed to preload cache file %s: %v", result.filePath, result.err)
			continue
		}
		c.memoryCache[result.entry.UserID] = result.entry
		loaded++
	}
	c.mu.Unlock()

	util.LogDebugf("Cache preload complete: %d loaded, %d errors (total %d)", loaded, failed, len(cacheFiles))
	return nil
}

type preloadResult struct {
	filePath string
	entry    *Entry
	err      error
}

func preloadWorker(filesChan <-chan string, resultsChan chan<- preloadResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for filePath := range filesChan {
		result := preloadResult{filePath: filePath}
		entry, err := readEntry(filePath)
		switch {
		case err != nil:
			result.err = err
		case entry.UserID == "":
			result.err = fmt.Errorf("cache file has no user id")
		default:
			result.entry = entry
		}
		resultsChan <- result
	}
}

// Stats returns the number of entries held in memory and on disk.
func (c *FileCache) Stats() (memoryCount, fileCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	memoryCount = len(c.memoryCache)
	filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".json") {
			fileCount++
		}
		return nil
	})
	return memoryCount, fileCount
}

// String returns a human readable miss reason.
func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "cache read error"
	case MissReasonInode:
		return "file inode changed"
	case MissReasonSize:
		return "file size changed"
	case MissReasonModTime:
		return "modification time changed"
	case MissReasonFingerprint:
		return "file fingerprint changed"
	case MissReasonNoFingerprint:
		return "cached entry has no fingerprint"
	case MissReasonNotFound:
		return "cache not found"
	case MissReasonPath:
		return "log path changed"
	default:
		return "unknown reason"
	}
}
