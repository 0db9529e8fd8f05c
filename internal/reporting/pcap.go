package reporting

import (
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"gamesniff/internal/analysis"
	"gamesniff/internal/inspect"
	"gamesniff/internal/models"
)

const snapLen = 65536

var (
	clientMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	serverMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

// PCAPFileName returns "packet-capture-<timestamp>.pcap".
func PCAPFileName(now time.Time) string {
	return strings.TrimSuffix(FileName(now), ".json") + ".pcap"
}

// WritePCAP writes one Ethernet frame per record to w in pcap format. The
// frames are built from the record fields and carry the record's synthetic
// bytes as payload; nothing in the file was captured from a network.
func WritePCAP(w io.Writer, records []models.PacketRecord) error {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("failed to write pcap header: %w", err)
	}

	for _, rec := range records {
		frame, err := BuildFrame(rec)
		if err != nil {
			return err
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     rec.Time(),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		if err := pw.WritePacket(ci, frame); err != nil {
			return fmt.Errorf("failed to write packet %d: %w", rec.ID, err)
		}
	}
	return nil
}

// ExportPCAP writes records to dir/PCAPFileName(now) and returns the path.
func ExportPCAP(dir string, records []models.PacketRecord, now time.Time) (string, error) {
	return writeFile(filepath.Join(dir, PCAPFileName(now)), func(w io.Writer) error {
		return WritePCAP(w, records)
	})
}

// BuildFrame serializes rec as Ethernet/IPv4/(TCP|UDP|ICMPv4)/payload.
// HTTP and HTTPS ride on TCP, DNS on UDP.
func BuildFrame(rec models.PacketRecord) ([]byte, error) {
	srcHost, srcPort := analysis.SplitEndpoint(rec.Source)
	dstHost, dstPort := analysis.SplitEndpoint(rec.Destination)

	eth := &layers.Ethernet{
		SrcMAC:       clientMAC,
		DstMAC:       serverMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	if rec.Direction == models.DirectionIncoming {
		eth.SrcMAC, eth.DstMAC = serverMAC, clientMAC
	}

	ip := &layers.IPv4{
		Version: 4,
		TTL:     64,
		Id:      uint16(rec.ID),
		SrcIP:   ipv4(srcHost),
		DstIP:   ipv4(dstHost),
	}

	payload := gopacket.Payload(inspect.SyntheticBytes(rec))
	stack := []gopacket.SerializableLayer{eth, ip}

	switch rec.Protocol {
	case models.ProtocolTCP, models.ProtocolHTTP, models.ProtocolHTTPS:
		ip.Protocol = layers.IPProtocolTCP
		tcp := &layers.TCP{
			SrcPort: layers.TCPPort(srcPort),
			DstPort: layers.TCPPort(dstPort),
		}
		if d, ok := inspect.Format(rec).(inspect.TCPDetail); ok {
			tcp.Seq = uint32(d.Sequence)
			tcp.Ack = uint32(d.Acknowledgment)
			tcp.Window = uint16(d.Window)
			setTCPFlags(tcp, rec.Flags)
		} else {
			tcp.PSH, tcp.ACK = true, true
			tcp.Window = 65535
		}
		if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, fmt.Errorf("failed to build tcp layer for %d: %w", rec.ID, err)
		}
		stack = append(stack, tcp)
	case models.ProtocolUDP, models.ProtocolDNS:
		ip.Protocol = layers.IPProtocolUDP
		udp := &layers.UDP{
			SrcPort: layers.UDPPort(srcPort),
			DstPort: layers.UDPPort(dstPort),
		}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, fmt.Errorf("failed to build udp layer for %d: %w", rec.ID, err)
		}
		stack = append(stack, udp)
	case models.ProtocolICMP:
		ip.Protocol = layers.IPProtocolICMPv4
		icmp := &layers.ICMPv4{Id: uint16(rec.ID), Seq: 1}
		if d, ok := inspect.Format(rec).(inspect.ICMPDetail); ok {
			icmp.TypeCode = layers.CreateICMPv4TypeCode(uint8(d.Type), uint8(d.Code))
		}
		stack = append(stack, icmp)
	default:
		return nil, fmt.Errorf("record %d: unsupported protocol %q", rec.ID, rec.Protocol)
	}
	stack = append(stack, payload)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	if err := gopacket.SerializeLayers(buf, opts, stack...); err != nil {
		return nil, fmt.Errorf("failed to serialize record %d: %w", rec.ID, err)
	}
	return buf.Bytes(), nil
}

func setTCPFlags(tcp *layers.TCP, flags string) {
	for _, f := range strings.Split(flags, ",") {
		switch models.Flag(strings.TrimSpace(f)) {
		case models.FlagSYN:
			tcp.SYN = true
		case models.FlagACK:
			tcp.ACK = true
		case models.FlagFIN:
			tcp.FIN = true
		case models.FlagRST:
			tcp.RST = true
		case models.FlagPSH:
			tcp.PSH = true
		}
	}
}

func ipv4(host string) net.IP {
	if ip := net.ParseIP(host).To4(); ip != nil {
		return ip
	}
	return net.IPv4zero.To4()
}
