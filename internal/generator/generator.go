// Package generator fabricates packet records for the simulated feed.
// Nothing here touches the network: every field is drawn from fixed tables.
package generator

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"gamesniff/internal/models"
)

// Rand is the random source used by the Generator. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

var (
	clientAddrs = []string{"192.168.1.5", "192.168.1.12", "10.0.0.23"}
	clientPorts = []int{54321, 49152, 51820, 60211}
	serverAddrs = []string{"203.0.113.10", "198.51.100.7", "203.0.113.45", "8.8.8.8"}
	serverPorts = []int{80, 443, 53, 27015, 3074, 7777}
	sizes       = []int{64, 128, 256, 512, 1024, 1460}
	payloads    = []string{
		"Game client requesting server status",
		"Server acknowledging client request",
		"Player position update",
		"Voice chat frame",
		"Matchmaking heartbeat",
		"Inventory sync",
		"Anti-cheat handshake",
		"Leaderboard query",
	}
)

// Option configures a Generator.
type Option func(*Generator)

// WithRand replaces the default time-seeded random source.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

// WithClock sets the function used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithStartID makes the first generated record carry id.
func WithStartID(id uint64) Option {
	return func(g *Generator) {
		g.nextID = id
	}
}

// Generator produces PacketRecords. It is not safe for concurrent use.
type Generator struct {
	rand   Rand
	now    func() time.Time
	nextID uint64
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		nextID: 1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns one fully populated record.
func (g *Generator) Generate() models.PacketRecord {
	id := g.nextID
	g.nextID++

	protocol := models.Protocols[g.rand.Intn(len(models.Protocols))]
	client := pickAddr(g.rand, clientAddrs, clientPorts)
	server := pickAddr(g.rand, serverAddrs, serverPorts)
	size := sizes[g.rand.Intn(len(sizes))]
	payload := payloads[g.rand.Intn(len(payloads))]

	direction := models.DirectionOutgoing
	src, dst := client, server
	if g.rand.Intn(2) == 1 {
		direction = models.DirectionIncoming
		src, dst = server, client
	}

	var flags string
	if protocol == models.ProtocolTCP {
		flags = sampleFlags(g.rand)
	}

	return models.PacketRecord{
		ID:          id,
		Timestamp:   g.now().UTC().Format(models.TimestampLayout),
		Protocol:    protocol,
		Source:      src,
		Destination: dst,
		Size:        size,
		Flags:       flags,
		Payload:     payload,
		Direction:   direction,
	}
}

// GenerateBatch returns n records in generation order.
func (g *Generator) GenerateBatch(n int) []models.PacketRecord {
	if n <= 0 {
		return []models.PacketRecord{}
	}
	out := make([]models.PacketRecord, n)
	for i := range out {
		out[i] = g.Generate()
	}
	return out
}

func pickAddr(r Rand, addrs []string, ports []int) string {
	addr := addrs[r.Intn(len(addrs))]
	port := ports[r.Intn(len(ports))]
	return addr + ":" + strconv.Itoa(port)
}

// sampleFlags draws 1-3 distinct flags and joins them in draw order.
func sampleFlags(r Rand) string {
	count := 1 + r.Intn(3)
	pool := make([]models.Flag, len(models.Flags))
	copy(pool, models.Flags)

	picked := make([]string, 0, count)
	for i := 0; i < count; i++ {
		j := r.Intn(len(pool))
		picked = append(picked, string(pool[j]))
		pool = append(pool[:j], pool[j+1:]...)
	}
	return strings.Join(picked, ", ")
}
