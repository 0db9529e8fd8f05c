package models

import "time"

// TimestampLayout is the ISO-8601 layout used for PacketRecord.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Protocol is the protocol label of a simulated packet.
type Protocol string

const (
	ProtocolTCP   Protocol = "TCP"
	ProtocolUDP   Protocol = "UDP"
	ProtocolHTTP  Protocol = "HTTP"
	ProtocolHTTPS Protocol = "HTTPS"
	ProtocolDNS   Protocol = "DNS"
	ProtocolICMP  Protocol = "ICMP"
)

// Protocols lists every protocol the generator may emit, in display order.
var Protocols = []Protocol{
	ProtocolTCP,
	ProtocolUDP,
	ProtocolHTTP,
	ProtocolHTTPS,
	ProtocolDNS,
	ProtocolICMP,
}

// Valid reports whether p is one of Protocols.
func (p Protocol) Valid() bool {
	for _, known := range Protocols {
		if p == known {
			return true
		}
	}
	return false
}

// Direction tells whether a packet left or reached the game client.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// Flag is a TCP control flag.
type Flag string

const (
	FlagSYN Flag = "SYN"
	FlagACK Flag = "ACK"
	FlagFIN Flag = "FIN"
	FlagRST Flag = "RST"
	FlagPSH Flag = "PSH"
)

// Flags lists the TCP flags the generator samples from.
var Flags = []Flag{FlagSYN, FlagACK, FlagFIN, FlagRST, FlagPSH}

// PacketRecord is one fabricated packet. Records are never mutated after
// the generator returns them.
type PacketRecord struct {
	ID          uint64    `json:"id"`
	Timestamp   string    `json:"timestamp"`
	Protocol    Protocol  `json:"protocol"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Size        int       `json:"size"`
	Flags       string    `json:"flags,omitempty"` // TCP only
	Payload     string    `json:"payload"`
	Direction   Direction `json:"direction"`
}

// Time parses Timestamp. A zero time is returned when it does not parse.
func (r PacketRecord) Time() time.Time {
	t, err := time.Parse(TimestampLayout, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
