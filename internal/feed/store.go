// Package feed holds the bounded, ordered list of simulated packet records.
package feed

import (
	"strings"

	"gamesniff/internal/models"
)

// DefaultCapacity is the number of most-recent records a Store keeps.
const DefaultCapacity = 20

// Store is a fixed-capacity ring buffer of records, oldest first.
// It is not safe for concurrent use.
type Store struct {
	buf   []models.PacketRecord
	head  int // index of the oldest record
	count int
}

// NewStore creates a Store. A capacity below 1 falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{buf: make([]models.PacketRecord, capacity)}
}

// Cap returns the fixed capacity.
func (s *Store) Cap() int {
	return len(s.buf)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return s.count
}

// Append adds rec as the newest record, evicting the oldest when full.
// It returns the evicted record, if any.
func (s *Store) Append(rec models.PacketRecord) (evicted models.PacketRecord, ok bool) {
	if s.count < len(s.buf) {
		s.buf[(s.head+s.count)%len(s.buf)] = rec
		s.count++
		return models.PacketRecord{}, false
	}
	evicted = s.buf[s.head]
	s.buf[s.head] = rec
	s.head = (s.head + 1) % len(s.buf)
	return evicted, true
}

// Replace empties the store and appends records in order; only the newest
// Cap() survive.
func (s *Store) Replace(records []models.PacketRecord) {
	s.Clear()
	if len(records) > len(s.buf) {
		records = records[len(records)-len(s.buf):]
	}
	for _, rec := range records {
		s.Append(rec)
	}
}

// Clear drops every record.
func (s *Store) Clear() {
	for i := range s.buf {
		s.buf[i] = models.PacketRecord{}
	}
	s.head = 0
	s.count = 0
}

// Records returns a copy of all records, oldest first.
func (s *Store) Records() []models.PacketRecord {
	out := make([]models.PacketRecord, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Get looks up a record by id.
func (s *Store) Get(id uint64) (models.PacketRecord, bool) {
	for i := 0; i < s.count; i++ {
		rec := s.buf[(s.head+i)%len(s.buf)]
		if rec.ID == id {
			return rec, true
		}
	}
	return models.PacketRecord{}, false
}

// Filter returns the records matching text, oldest first. An empty text
// matches everything.
func (s *Store) Filter(text string) []models.PacketRecord {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return s.Records()
	}
	out := make([]models.PacketRecord, 0, s.count)
	for i := 0; i < s.count; i++ {
		rec := s.buf[(s.head+i)%len(s.buf)]
		if Matches(rec, needle) {
			out = append(out, rec)
		}
	}
	return out
}

// Matches reports whether needle occurs in the record's protocol, source,
// destination or payload, ignoring case.
func Matches(rec models.PacketRecord, needle string) bool {
	needle = strings.ToLower(needle)
	if needle == "" {
		return true
	}
	fields := [...]string{string(rec.Protocol), rec.Source, rec.Destination, rec.Payload}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
