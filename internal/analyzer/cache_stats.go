package analyzer

import (
	"sync"
	"sync/atomic"

	"github.com/penwyp/go-sleep-monitor/internal/data/cache"
	"github.com/penwyp/go-sleep-monitor/internal/util"
)

// CacheStats counts reconcile memo lookups over the analyzer's lifetime.
type CacheStats struct {
	lookups     int64
	cacheHits   int64
	cacheMisses int64
	mu          sync.Mutex
	missDetails []MissDetail
}

// MissDetail records details of a cache miss
type MissDetail struct {
	UserID string
	Reason cache.CacheMissReason
}

// NewCacheStats creates a new CacheStats instance
func NewCacheStats() *CacheStats {
	return &CacheStats{
		missDetails: make([]MissDetail, 0),
	}
}

// IncrementHit records a lookup served from the cache
func (cs *CacheStats) IncrementHit() {
	atomic.AddInt64(&cs.lookups, 1)
	atomic.AddInt64(&cs.cacheHits, 1)
}

// IncrementMiss records a lookup that had to reconcile from the store
func (cs *CacheStats) IncrementMiss(userID string, reason cache.CacheMissReason) {
	atomic.AddInt64(&cs.lookups, 1)
	atomic.AddInt64(&cs.cacheMisses, 1)

	cs.mu.Lock()
	cs.missDetails = append(cs.missDetails, MissDetail{UserID: userID, Reason: reason})
	cs.mu.Unlock()
}

// GetStats returns the current statistics and hit rate
func (cs *CacheStats) GetStats() (lookups, hits, misses int64, hitRate float64) {
	lookups = atomic.LoadInt64(&cs.lookups)
	hits = atomic.LoadInt64(&cs.cacheHits)
	misses = atomic.LoadInt64(&cs.cacheMisses)

	if lookups > 0 {
		hitRate = float64(hits) / float64(lookups) * 100
	}
	return
}

// MissReasons counts misses by reason.
func (cs *CacheStats) MissReasons() map[cache.CacheMissReason]int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	counts := make(map[cache.CacheMissReason]int)
	for _, detail := range cs.missDetails {
		counts[detail.Reason]++
	}
	return counts
}

// LogStats writes the current statistics at debug level
func (cs *CacheStats) LogStats() {
	lookups, hits, misses, hitRate := cs.GetStats()
	util.LogDebugf("Reconcile cache: %d lookups, %d hits, %d misses, hit rate %.1f%%",
		lookups, hits, misses, hitRate)

	for reason, count := range cs.MissReasons() {
		util.LogDebugf("  %s: %d", reason, count)
	}
}
