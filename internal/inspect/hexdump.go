package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"gamesniff/internal/models"
)

const (
	bytesPerRow = 16
	lcgMul      = 9301
	lcgInc      = 49297
	lcgMod      = 233280
)

// HexRow is one line of a hex dump.
type HexRow struct {
	Offset int    `json:"offset"`
	Hex    string `json:"hex"`
	ASCII  string `json:"ascii"`
}

// String renders the row as "0000  48 65 ...  He..".
func (r HexRow) String() string {
	return fmt.Sprintf("%04x  %-47s  %s", r.Offset, r.Hex, r.ASCII)
}

// Seed sums the character codes of the record id, source and destination.
func Seed(rec models.PacketRecord) int {
	sum := 0
	for _, c := range strconv.FormatUint(rec.ID, 10) + rec.Source + rec.Destination {
		sum += int(c)
	}
	return sum
}

// lcg is the seeded stream all synthetic values are drawn from.
type lcg struct {
	state int
}

func newLCG(seed int) *lcg {
	return &lcg{state: seed % lcgMod}
}

// next returns a value in [0, 1) scaled to n.
func (l *lcg) next(n int) int {
	l.state = (l.state*lcgMul + lcgInc) % lcgMod
	return l.state * n / lcgMod
}

// SyntheticBytes returns rec.Size bytes derived from Seed(rec). They are not
// captured data; the same record always yields the same bytes.
func SyntheticBytes(rec models.PacketRecord) []byte {
	if rec.Size <= 0 {
		return []byte{}
	}
	g := newLCG(Seed(rec))
	out := make([]byte, rec.Size)
	for i := range out {
		out[i] = byte(g.next(256))
	}
	return out
}

// HexDump formats SyntheticBytes(rec) as 16-byte rows.
func HexDump(rec models.PacketRecord) []HexRow {
	return Rows(SyntheticBytes(rec))
}

// Rows formats data as 16-byte hex dump rows.
func Rows(data []byte) []HexRow {
	rows := make([]HexRow, 0, (len(data)+bytesPerRow-1)/bytesPerRow)
	for off := 0; off < len(data); off += bytesPerRow {
		end := off + bytesPerRow
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]

		hex := make([]string, len(chunk))
		var ascii strings.Builder
		for i, b := range chunk {
			hex[i] = fmt.Sprintf("%02x", b)
			if b >= 0x20 && b < 0x7f {
				ascii.WriteByte(b)
			} else {
				ascii.WriteByte('.')
			}
		}
		rows = append(rows, HexRow{
			Offset: off,
			Hex:    strings.Join(hex, " "),
			ASCII:  ascii.String(),
		})
	}
	return rows
}
