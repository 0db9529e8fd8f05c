package reporting

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamesniff/internal/analysis"
	"gamesniff/internal/generator"
	"gamesniff/internal/inspect"
	"gamesniff/internal/models"
)

var exportTime = time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

func sampleRecords(n int) []models.PacketRecord {
	g := generator.New(
		generator.WithRand(rand.New(rand.NewSource(7))),
		generator.WithClock(func() time.Time { return exportTime }),
	)
	return g.GenerateBatch(n)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "packet-capture-2024-03-01T12-30-45Z.json", FileName(exportTime))
	assert.Equal(t, "packet-capture-2024-03-01T12-30-45Z.pcap", PCAPFileName(exportTime))

	local := exportTime.In(time.FixedZone("UTC+2", 2*3600))
	assert.Equal(t, FileName(exportTime), FileName(local))
}

func TestWriteJSONRoundTrip(t *testing.T) {
	records := sampleRecords(12)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, records))

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Len(t, got, len(records))
	assert.Equal(t, records, got)
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestWriteJSONOmitsFlagsOutsideTCP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []models.PacketRecord{{ID: 1, Protocol: models.ProtocolUDP}}))
	assert.NotContains(t, buf.String(), "flags")
}

func TestReadJSONRejectsGarbage(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords(3)

	path, err := ExportJSON(dir, records, exportTime)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "packet-capture-2024-03-01T12-30-45Z.json"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := ReadJSON(f)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestExportJSONMissingDir(t *testing.T) {
	_, err := ExportJSON(filepath.Join(t.TempDir(), "missing"), nil, exportTime)
	assert.Error(t, err)
}

func TestWritePCAP(t *testing.T) {
	records := sampleRecords(30)

	var buf bytes.Buffer
	require.NoError(t, WritePCAP(&buf, records))

	r, err := pcapgo.NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())

	count := 0
	for {
		data, ci, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rec := records[count]
		count++

		assert.True(t, ci.Timestamp.Equal(exportTime))
		pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
		require.NotNil(t, pkt.Layer(layers.LayerTypeIPv4), "record %d", rec.ID)

		srcHost, srcPort := analysis.SplitEndpoint(rec.Source)
		ip := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		assert.Equal(t, srcHost, ip.SrcIP.String())

		switch rec.Protocol {
		case models.ProtocolTCP, models.ProtocolHTTP, models.ProtocolHTTPS:
			tcp, ok := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP)
			require.True(t, ok, "record %d should carry tcp", rec.ID)
			assert.Equal(t, layers.TCPPort(srcPort), tcp.SrcPort)
			assert.Equal(t, inspect.SyntheticBytes(rec), []byte(tcp.Payload))
		case models.ProtocolUDP, models.ProtocolDNS:
			udp, ok := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
			require.True(t, ok, "record %d should carry udp", rec.ID)
			assert.Equal(t, layers.UDPPort(srcPort), udp.SrcPort)
		case models.ProtocolICMP:
			assert.NotNil(t, pkt.Layer(layers.LayerTypeICMPv4))
		}
	}
	assert.Equal(t, len(records), count)
}

func TestBuildFrameTCPFlags(t *testing.T) {
	rec := models.PacketRecord{
		ID:          9,
		Timestamp:   "2024-03-01T12:30:45.000Z",
		Protocol:    models.ProtocolTCP,
		Source:      "192.168.1.5:54321",
		Destination: "203.0.113.10:27015",
		Size:        64,
		Flags:       "SYN, RST",
		Direction:   models.DirectionOutgoing,
	}

	frame, err := BuildFrame(rec)
	require.NoError(t, err)

	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	tcp := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP)
	assert.True(t, tcp.SYN)
	assert.True(t, tcp.RST)
	assert.False(t, tcp.ACK)
	assert.Equal(t, layers.TCPPort(27015), tcp.DstPort)

	eth := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	assert.Equal(t, clientMAC, eth.SrcMAC)
}

func TestBuildFrameUnknownProtocol(t *testing.T) {
	_, err := BuildFrame(models.PacketRecord{ID: 3, Protocol: "QUIC", Source: "1.2.3.4:1", Destination: "5.6.7.8:2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUIC")
}

func TestGenerateSessionReport(t *testing.T) {
	dir := t.TempDir()
	records := []models.PacketRecord{
		{ID: 1, Protocol: models.ProtocolTCP, Source: "192.168.1.10:54321", Destination: "203.0.113.10:443", Size: 500, Payload: "Inventory sync", Direction: models.DirectionOutgoing},
		{ID: 2, Protocol: models.ProtocolUDP, Source: "198.51.100.7:3074", Destination: "192.168.1.10:54321", Size: 300, Payload: "<script>", Direction: models.DirectionIncoming},
	}
	stats := analysis.FromRecords(records)

	filename, err := GenerateSessionReport(dir, stats, records, exportTime)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_20240301_123045.html"), filename)

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	html := string(content)

	assert.Contains(t, html, "gamesniff Session Report")
	assert.Contains(t, html, "All packets in this report are simulated.")
	assert.Contains(t, html, "192.168.1.10")
	assert.Contains(t, html, "Inventory sync")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "800 B")
}

func TestGenerateSessionReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, analysis.NewFeedStats(), nil, exportTime))
	assert.Contains(t, buf.String(), "Feed is empty.")
	assert.Contains(t, buf.String(), "No packets generated.")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
