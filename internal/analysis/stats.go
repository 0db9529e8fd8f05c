package analysis

import (
	"sort"
	"sync"

	"gamesniff/internal/models"
)

// IPStat holds stats for a single source endpoint.
type IPStat struct {
	IP    string `json:"ip"`
	Bytes int    `json:"bytes"`
}

// ProtocolStat holds stats for a single protocol.
type ProtocolStat struct {
	Protocol models.Protocol `json:"protocol"`
	Count    int64           `json:"count"`
}

// Summary is a point-in-time copy of FeedStats.
type Summary struct {
	TotalPackets int64          `json:"total_packets"`
	TotalBytes   int64          `json:"total_bytes"`
	Outgoing     int64          `json:"outgoing"`
	Incoming     int64          `json:"incoming"`
	Protocols    []ProtocolStat `json:"protocols"`
}

// FeedStats tracks running totals over every record the session produced,
// including records the store has since evicted.
type FeedStats struct {
	mu             sync.Mutex
	totalBytes     int64
	totalPackets   int64
	outgoing       int64
	incoming       int64
	ipBytes        map[string]int
	protocolCounts map[models.Protocol]int64
}

// NewFeedStats creates a new FeedStats instance.
func NewFeedStats() *FeedStats {
	return &FeedStats{
		ipBytes:        make(map[string]int),
		protocolCounts: make(map[models.Protocol]int64),
	}
}

// ProcessRecord updates stats with a new record.
func (s *FeedStats) ProcessRecord(rec models.PacketRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalBytes += int64(rec.Size)
	s.totalPackets++

	switch rec.Direction {
	case models.DirectionOutgoing:
		s.outgoing++
	case models.DirectionIncoming:
		s.incoming++
	}

	if host := hostOf(rec.Source); host != "" {
		s.ipBytes[host] += rec.Size
	}
	s.protocolCounts[rec.Protocol]++
}

// Reset drops all totals.
func (s *FeedStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalBytes = 0
	s.totalPackets = 0
	s.outgoing = 0
	s.incoming = 0
	s.ipBytes = make(map[string]int)
	s.protocolCounts = make(map[models.Protocol]int64)
}

// GetTopTalkers returns the top N sources by volume.
func (s *FeedStats) GetTopTalkers(limit int) []IPStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]IPStat, 0, len(s.ipBytes))
	for ip, bytes := range s.ipBytes {
		stats = append(stats, IPStat{IP: ip, Bytes: bytes})
	}

	// Ties broken by address so output is stable
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Bytes != stats[j].Bytes {
			return stats[i].Bytes > stats[j].Bytes
		}
		return stats[i].IP < stats[j].IP
	})

	if limit >= 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// GetProtocolStats returns the protocol distribution, busiest first.
func (s *FeedStats) GetProtocolStats() []ProtocolStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocolStatsLocked()
}

func (s *FeedStats) protocolStatsLocked() []ProtocolStat {
	stats := make([]ProtocolStat, 0, len(s.protocolCounts))
	for proto, count := range s.protocolCounts {
		stats = append(stats, ProtocolStat{Protocol: proto, Count: count})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Protocol < stats[j].Protocol
	})

	return stats
}

// Summary returns a copy of the current totals.
func (s *FeedStats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summary{
		TotalPackets: s.totalPackets,
		TotalBytes:   s.totalBytes,
		Outgoing:     s.outgoing,
		Incoming:     s.incoming,
		Protocols:    s.protocolStatsLocked(),
	}
}

// FromRecords builds stats over a fixed slice, used by headless exports.
func FromRecords(records []models.PacketRecord) *FeedStats {
	s := NewFeedStats()
	for _, rec := range records {
		s.ProcessRecord(rec)
	}
	return s
}
