// Package cache memoizes scan reports for a short time
package cache

import (
	"context"
	"encoding/binary"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/fenilsonani/homesweep/internal/report"
)

// DefaultTTL is how long a cached report stays valid
const DefaultTTL = 60 * time.Second

// Key identifies the effective parameters of a scan
type Key struct {
	Home         string
	Categories   []string
	MinSizeBytes int64
	MinAgeDays   int
}

// Hash returns a deterministic digest of the key. Categories are sorted
// first, so the same set in any order yields the same hash.
func (k Key) Hash() uint64 {
	cats := slices.Clone(k.Categories)
	slices.Sort(cats)

	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(k.MinSizeBytes))
	d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(k.MinAgeDays))
	d.Write(buf[:])
	for _, c := range cats {
		d.WriteString(c)
		d.Write([]byte{0})
	}
	d.WriteString(k.Home)
	return d.Sum64()
}

type entry struct {
	report  *report.Report
	expires time.Time
}

// ScanCache holds reports keyed by scan parameters. It is safe for
// concurrent use.
type ScanCache struct {
	mu         sync.RWMutex
	entries    map[uint64]entry
	ttl        time.Duration
	generation uint64
	group      singleflight.Group
	now        func() time.Time
}

// New creates a ScanCache. A non-positive ttl uses DefaultTTL.
func New(ttl time.Duration) *ScanCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ScanCache{
		entries: make(map[uint64]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// TTL returns the entry lifetime
func (c *ScanCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached report for key if present and not expired
func (c *ScanCache) Get(key Key) (*report.Report, bool) {
	h := key.Hash()

	c.mu.RLock()
	e, ok := c.entries[h]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.report, true
}

// Put stores a report for key
func (c *ScanCache) Put(key Key, r *report.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key.Hash(), r)
}

func (c *ScanCache) putLocked(h uint64, r *report.Report) {
	c.entries[h] = entry{report: r, expires: c.now().Add(c.ttl)}
}

// Do returns the cached report for key or runs scan to build it. Concurrent
// misses for the same key share one scan. The shared scan is detached from
// any single caller's cancellation; each caller stops waiting when its own
// ctx is done. The result is stored only when no invalidation happened
// while the scan ran. The bool reports a cache hit.
func (c *ScanCache) Do(ctx context.Context, key Key, scan func(context.Context) (*report.Report, error)) (*report.Report, bool, error) {
	if r, ok := c.Get(key); ok {
		return r, true, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(key.Hash(), 16), func() (interface{}, error) {
		gen := c.Generation()
		r, err := scan(flightCtx)
		if err != nil {
			return nil, err
		}
		c.PutIfGeneration(key, r, gen)
		return r, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*report.Report), false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Generation returns the invalidation counter. Pair it with PutIfGeneration
// to store a result computed outside Do.
func (c *ScanCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// PutIfGeneration stores r only if no invalidation happened since gen was
// read. It reports whether the report was stored.
func (c *ScanCache) PutIfGeneration(key Key, r *report.Report, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.putLocked(key.Hash(), r)
	return true
}

// InvalidateAll drops every entry. Scans already in flight will not store
// their results.
func (c *ScanCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]entry)
	c.generation++
}

// Len returns the number of stored entries, expired ones included
func (c *ScanCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Prune removes expired entries
func (c *ScanCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for h, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, h)
			removed++
		}
	}
	return removed
}
