// Package history keeps the bounded, newest-first log of query attempts.
package history

import (
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"github.com/usestring/pmsinspect-mcp/pkg/platform"
	"github.com/usestring/pmsinspect-mcp/pkg/types"
)

// DefaultLimit is the number of entries retained.
const DefaultLimit = 50

type stored struct {
	seq   uint32
	entry types.QueryHistoryEntry
}

// Log records query intent (not outcome). When full, the oldest entry is
// evicted. Platform and endpoint bitmaps over entry sequence numbers back
// filtered listing.
type Log struct {
	mu         sync.RWMutex
	limit      int
	entries    []stored // newest first
	nextSeq    uint32
	byPlatform map[platform.Key]*roaring.Bitmap
	byEndpoint map[string]*roaring.Bitmap
	now        func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// New creates a log retaining up to limit entries. A non-positive limit
// selects DefaultLimit.
func New(limit int, opts ...Option) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	l := &Log{
		limit:      limit,
		byPlatform: make(map[platform.Key]*roaring.Bitmap),
		byEndpoint: make(map[string]*roaring.Bitmap),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record prepends an entry and returns it.
func (l *Log) Record(query string, p platform.Key, endpoint string) types.QueryHistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := types.QueryHistoryEntry{
		ID:        uuid.NewString(),
		Query:     query,
		Timestamp: types.Timestamp(l.now()),
		Platform:  p,
		Endpoint:  endpoint,
	}

	seq := l.nextSeq
	l.nextSeq++

	l.entries = append([]stored{{seq: seq, entry: entry}}, l.entries...)
	bitmapFor(l.byPlatform, p).Add(seq)
	bitmapFor(l.byEndpoint, endpoint).Add(seq)

	for len(l.entries) > l.limit {
		l.evict(l.entries[len(l.entries)-1])
		l.entries = l.entries[:len(l.entries)-1]
	}
	return entry
}

func (l *Log) evict(s stored) {
	if bm, ok := l.byPlatform[s.entry.Platform]; ok {
		bm.Remove(s.seq)
		if bm.IsEmpty() {
			delete(l.byPlatform, s.entry.Platform)
		}
	}
	if bm, ok := l.byEndpoint[s.entry.Endpoint]; ok {
		bm.Remove(s.seq)
		if bm.IsEmpty() {
			delete(l.byEndpoint, s.entry.Endpoint)
		}
	}
}

func bitmapFor[K comparable](m map[K]*roaring.Bitmap, key K) *roaring.Bitmap {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	return bm
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Platform platform.Key
	Endpoint string
	Limit    int
}

// List returns matching entries, newest first.
func (l *Log) List(f Filter) []types.QueryHistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var match *roaring.Bitmap
	if f.Platform != "" {
		match = intersect(match, l.byPlatform[f.Platform])
	}
	if f.Endpoint != "" {
		match = intersect(match, l.byEndpoint[f.Endpoint])
	}

	out := make([]types.QueryHistoryEntry, 0, len(l.entries))
	for _, s := range l.entries {
		if match != nil && !match.Contains(s.seq) {
			continue
		}
		out = append(out, s.entry)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// intersect ANDs bm into acc. A missing bitmap matches nothing.
func intersect(acc, bm *roaring.Bitmap) *roaring.Bitmap {
	if bm == nil {
		return roaring.New()
	}
	if acc == nil {
		return bm.Clone()
	}
	acc.And(bm)
	return acc
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Limit returns the retention limit.
func (l *Log) Limit() int {
	return l.limit
}

// Clear removes every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.byPlatform = make(map[platform.Key]*roaring.Bitmap)
	l.byEndpoint = make(map[string]*roaring.Bitmap)
}
