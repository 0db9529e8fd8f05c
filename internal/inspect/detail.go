// Package inspect builds the detail view of a simulated packet: protocol
// specific fields and a hex dump. Every value is synthetic and derived from
// the record itself, so inspecting a record twice shows the same thing.
package inspect

import (
	"fmt"
	"strconv"

	"gamesniff/internal/analysis"
	"gamesniff/internal/models"
)

// Field is one labelled line of the detail view.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Detail is implemented only by the variants in this package.
type Detail interface {
	Record() models.PacketRecord
	Fields() []Field
	isDetail()
}

// Header carries the fields every variant shows.
type Header struct {
	models.PacketRecord
}

func (h Header) Record() models.PacketRecord { return h.PacketRecord }

func (Header) isDetail() {}

func (h Header) fields() []Field {
	return []Field{
		{"ID", strconv.FormatUint(h.ID, 10)},
		{"Time", h.Timestamp},
		{"Protocol", string(h.Protocol)},
		{"Source", h.Source},
		{"Destination", h.Destination},
		{"Size", fmt.Sprintf("%d bytes", h.Size)},
		{"Direction", string(h.Direction)},
		{"Payload", h.Payload},
	}
}

type TCPDetail struct {
	Header
	Flags          string
	Sequence       int
	Acknowledgment int
	Window         int
	SrcService     string
	DstService     string
}

func (d TCPDetail) Fields() []Field {
	return append(d.Header.fields(),
		Field{"Flags", d.Flags},
		Field{"Sequence", strconv.Itoa(d.Sequence)},
		Field{"Acknowledgment", strconv.Itoa(d.Acknowledgment)},
		Field{"Window", strconv.Itoa(d.Window)},
		Field{"Source Service", d.SrcService},
		Field{"Destination Service", d.DstService},
	)
}

type UDPDetail struct {
	Header
	Length   int
	Checksum int
}

func (d UDPDetail) Fields() []Field {
	return append(d.Header.fields(),
		Field{"Length", strconv.Itoa(d.Length)},
		Field{"Checksum", fmt.Sprintf("0x%04x", d.Checksum)},
	)
}

// HTTPDetail is a request when the packet is outgoing and a response when
// it is incoming.
type HTTPDetail struct {
	Header
	Method  string // request only
	URL     string // request only
	Status  string // response only
	Headers []Field
}

func (d HTTPDetail) IsRequest() bool {
	return d.Direction == models.DirectionOutgoing
}

func (d HTTPDetail) Fields() []Field {
	fields := d.Header.fields()
	if d.IsRequest() {
		fields = append(fields, Field{"Method", d.Method}, Field{"URL", d.URL})
	} else {
		fields = append(fields, Field{"Status", d.Status})
	}
	for _, h := range d.Headers {
		fields = append(fields, Field{"Header " + h.Name, h.Value})
	}
	return fields
}

type HTTPSDetail struct {
	Header
	TLSVersion  string
	CipherSuite string
	ServerName  string
}

func (d HTTPSDetail) Fields() []Field {
	return append(d.Header.fields(),
		Field{"TLS Version", d.TLSVersion},
		Field{"Cipher Suite", d.CipherSuite},
		Field{"Server Name", d.ServerName},
	)
}

type DNSDetail struct {
	Header
	Query  string
	Type   string
	Answer string
}

func (d DNSDetail) Fields() []Field {
	return append(d.Header.fields(),
		Field{"Query", d.Query},
		Field{"Type", d.Type},
		Field{"Answer", d.Answer},
	)
}

type ICMPDetail struct {
	Header
	Type        int
	Code        int
	Description string
}

func (d ICMPDetail) Fields() []Field {
	return append(d.Header.fields(),
		Field{"Type", strconv.Itoa(d.Type)},
		Field{"Code", strconv.Itoa(d.Code)},
		Field{"Description", d.Description},
	)
}

// RawDetail covers records whose protocol is outside models.Protocols, such
// as hand-edited exports.
type RawDetail struct {
	Header
}

func (d RawDetail) Fields() []Field {
	return d.Header.fields()
}

var (
	httpMethods = []string{"GET", "POST", "PUT"}
	httpPaths   = []string{"/api/v1/status", "/api/v1/matchmaking", "/api/v1/leaderboard", "/api/v1/inventory"}
	httpStatus  = []string{"200 OK", "201 Created", "204 No Content", "404 Not Found"}
	tlsVersions = []string{"TLS 1.2", "TLS 1.3"}
	tlsCiphers  = []string{"TLS_AES_128_GCM_SHA256", "TLS_AES_256_GCM_SHA384", "TLS_CHACHA20_POLY1305_SHA256"}
	hostnames   = []string{"game.example.net", "match.example.net", "cdn.example.net", "voice.example.net"}
	dnsTypes    = []string{"A", "AAAA"}
	icmpKinds   = []struct {
		typ, code int
		desc      string
	}{
		{0, 0, "Echo Reply"},
		{8, 0, "Echo Request"},
		{3, 3, "Port Unreachable"},
		{11, 0, "Time Exceeded"},
	}
)

// Format builds the protocol-specific detail for rec.
func Format(rec models.PacketRecord) Detail {
	h := Header{rec}
	g := newLCG(Seed(rec)*31 + 7)

	switch rec.Protocol {
	case models.ProtocolTCP:
		_, sport := analysis.SplitEndpoint(rec.Source)
		_, dport := analysis.SplitEndpoint(rec.Destination)
		return TCPDetail{
			Header:         h,
			Flags:          rec.Flags,
			Sequence:       g.next(1000000),
			Acknowledgment: g.next(1000000),
			Window:         g.next(65535),
			SrcService:     analysis.GetServiceName(sport),
			DstService:     analysis.GetServiceName(dport),
		}
	case models.ProtocolUDP:
		return UDPDetail{
			Header:   h,
			Length:   rec.Size,
			Checksum: g.next(65536),
		}
	case models.ProtocolHTTP:
		return formatHTTP(h, g)
	case models.ProtocolHTTPS:
		return HTTPSDetail{
			Header:      h,
			TLSVersion:  pick(g, tlsVersions),
			CipherSuite: pick(g, tlsCiphers),
			ServerName:  pick(g, hostnames),
		}
	case models.ProtocolDNS:
		typ := pick(g, dnsTypes)
		answer := fmt.Sprintf("203.0.113.%d", 1+g.next(254))
		if typ == "AAAA" {
			answer = fmt.Sprintf("2001:db8::%x", 1+g.next(0xfffe))
		}
		return DNSDetail{
			Header: h,
			Query:  pick(g, hostnames),
			Type:   typ,
			Answer: answer,
		}
	case models.ProtocolICMP:
		k := icmpKinds[g.next(len(icmpKinds))]
		return ICMPDetail{Header: h, Type: k.typ, Code: k.code, Description: k.desc}
	default:
		return RawDetail{Header: h}
	}
}

func formatHTTP(h Header, g *lcg) HTTPDetail {
	d := HTTPDetail{Header: h}
	if d.IsRequest() {
		host, _ := analysis.SplitEndpoint(h.Destination)
		d.Method = pick(g, httpMethods)
		d.URL = pick(g, httpPaths)
		d.Headers = []Field{
			{"Host", host},
			{"User-Agent", "GameClient/2.4"},
			{"Accept", "application/json"},
		}
		return d
	}
	d.Status = pick(g, httpStatus)
	d.Headers = []Field{
		{"Content-Type", "application/json"},
		{"Content-Length", strconv.Itoa(h.Size)},
		{"Server", "game-api"},
	}
	return d
}

func pick(g *lcg, values []string) string {
	return values[g.next(len(values))]
}

// View is the serializable form of a record's detail panel.
type View struct {
	Record    models.PacketRecord `json:"record"`
	Fields    []Field             `json:"fields"`
	HexDump   []HexRow            `json:"hex_dump"`
	Synthetic bool                `json:"synthetic"` // always true: no byte here was captured
}

// Inspect formats rec and its hex dump.
func Inspect(rec models.PacketRecord) View {
	return View{
		Record:    rec,
		Fields:    Format(rec).Fields(),
		HexDump:   HexDump(rec),
		Synthetic: true,
	}
}
