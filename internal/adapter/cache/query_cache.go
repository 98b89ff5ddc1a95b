package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"

	"athleterag/internal/domain"
)

// QueryCache memoizes retrieval results. Entries expire after a TTL and
// are dropped wholesale whenever the index generation advances, since any
// mutation can change every query's result set.
type QueryCache struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
}

type cacheEntry struct {
	results   []domain.ScoredRecord
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(query, athleteFilter string, topK int, minSimilarity float64) string {
	data := []byte(query)
	data = append(data, 0)
	data = append(data, athleteFilter...)
	data = append(data, 0, byte(topK>>8), byte(topK))
	var sim [8]byte
	binary.LittleEndian.PutUint64(sim[:], math.Float64bits(minSimilarity))
	data = append(data, sim[:]...)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(query, athleteFilter string, topK int, minSimilarity float64) ([]domain.ScoredRecord, bool) {
	c.mu.RLock()
	key := cacheKey(query, athleteFilter, topK, minSimilarity)
	entry, exists := c.entries[key]
	currentGen := c.indexGen
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if entry.indexGen != currentGen {
		return nil, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.results, true
}

func (c *QueryCache) Put(query, athleteFilter string, topK int, minSimilarity float64, results []domain.ScoredRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, athleteFilter, topK, minSimilarity)

	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = &cacheEntry{
		results:   results,
		timestamp: time.Now(),
		indexGen:  c.indexGen,
	}
}

// Invalidate advances the index generation, making all cached entries
// stale. Called after any index mutation.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexGen++
	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
