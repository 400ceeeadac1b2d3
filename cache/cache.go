// Package cache provides the two bounded in-memory message stores: a
// ring buffer for ignored messages and a deduplicating store for caught
// messages. Neither survives a process restart.
package cache

import (
	"hash/fnv"
	"sort"
	"time"

	"github.com/onnwee/chatfilter/style"
)

// Record is a retained message. A record is owned by exactly one cache
// for its lifetime.
type Record struct {
	Participant string
	Text        string
	Channel     string
	Kind        string
	Time        time.Time
	// Matches holds the substrings the triggering pattern matched, for
	// re-highlighting when the record is displayed later.
	Matches []string
	// Corr is the correlation id assigned when the event was delivered.
	Corr string
}

// ID computes the deterministic dedup id for a caught message: a hash
// over channel, participant, and text with all markup stripped. The
// same physical message delivered twice always produces the same id.
func ID(channel, participant, text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(style.Strip(channel)))
	h.Write([]byte{0})
	h.Write([]byte(style.Strip(participant)))
	h.Write([]byte{0})
	h.Write([]byte(style.Strip(text)))
	return h.Sum64()
}

// Ring is a fixed-capacity buffer that silently drops the oldest record
// once full.
type Ring struct {
	capacity int
	records  []Record
}

// NewRing creates a ring with the given capacity.
func NewRing(capacity int) *Ring {
	return &Ring{capacity: capacity}
}

// Add appends a record, evicting the oldest when at capacity.
func (r *Ring) Add(rec Record) {
	if len(r.records) >= r.capacity {
		drop := len(r.records) - r.capacity + 1
		r.records = append(r.records[:0], r.records[drop:]...)
	}
	r.records = append(r.records, rec)
}

// Records returns the retained records, oldest first.
func (r *Ring) Records() []Record {
	return append([]Record(nil), r.records...)
}

// Len returns the number of retained records.
func (r *Ring) Len() int { return len(r.records) }

// Clear drops every record.
func (r *Ring) Clear() { r.records = nil }

// DedupStore is a fixed-capacity associative store keyed by the
// content-derived dedup id. Re-inserting an existing id is a no-op;
// when over capacity the entry with the oldest timestamp is evicted.
type DedupStore struct {
	capacity int
	records  map[uint64]Record
}

// NewDedupStore creates a store with the given capacity.
func NewDedupStore(capacity int) *DedupStore {
	return &DedupStore{capacity: capacity, records: make(map[uint64]Record)}
}

// Add inserts a record under its dedup id. It reports whether the
// record was actually stored; a duplicate id returns false and changes
// nothing.
func (s *DedupStore) Add(rec Record) bool {
	id := ID(rec.Channel, rec.Participant, rec.Text)
	if _, ok := s.records[id]; ok {
		return false
	}
	if len(s.records) >= s.capacity {
		s.evictOldest()
	}
	s.records[id] = rec
	return true
}

func (s *DedupStore) evictOldest() {
	var oldest uint64
	first := true
	for id, rec := range s.records {
		if first || rec.Time.Before(s.records[oldest].Time) {
			oldest = id
			first = false
		}
	}
	if !first {
		delete(s.records, oldest)
	}
}

// Records returns the stored records ordered by time, oldest first.
func (s *DedupStore) Records() []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// RemoveMatching deletes every record the predicate selects and returns
// how many were removed.
func (s *DedupStore) RemoveMatching(match func(Record) bool) int {
	removed := 0
	for id, rec := range s.records {
		if match(rec) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored records.
func (s *DedupStore) Len() int { return len(s.records) }

// Clear drops every record.
func (s *DedupStore) Clear() { s.records = make(map[uint64]Record) }
