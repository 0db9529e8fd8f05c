package reporting

import (
	"fmt"
	"html"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gamesniff/internal/analysis"
	"gamesniff/internal/models"
)

// ReportFileName returns "report_<timestamp>.html".
func ReportFileName(now time.Time) string {
	return fmt.Sprintf("report_%s.html", now.Format("20060102_150405"))
}

// GenerateSessionReport writes an HTML summary of the feed to dir and
// returns the file path.
func GenerateSessionReport(dir string, stats *analysis.FeedStats, records []models.PacketRecord, now time.Time) (string, error) {
	return writeFile(filepath.Join(dir, ReportFileName(now)), func(w io.Writer) error {
		return WriteReport(w, stats, records, now)
	})
}

// WriteReport renders the HTML summary to w.
func WriteReport(w io.Writer, stats *analysis.FeedStats, records []models.PacketRecord, now time.Time) error {
	summary := stats.Summary()
	topTalkers := stats.GetTopTalkers(10)

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>gamesniff Session Report - %s</title>
    <style>
        body { font-family: sans-serif; margin: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        table { width: 100%%; border-collapse: collapse; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .summary { background: #eef; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .note { color: #888; font-style: italic; }
    </style>
</head>
<body>
    <h1>gamesniff Session Report</h1>
    <p class="note">All packets in this report are simulated.</p>
    <div class="summary">
        <p><strong>Date:</strong> %s</p>
        <p><strong>Packets Generated:</strong> %d (%d outgoing, %d incoming)</p>
        <p><strong>Total Data:</strong> %s</p>
    </div>
`, now.Format("20060102_150405"), now.Format(time.RFC1123),
		summary.TotalPackets, summary.Outgoing, summary.Incoming, formatBytes(summary.TotalBytes))

	b.WriteString(`
    <h2>Protocols</h2>
    <table>
        <thead><tr><th>Protocol</th><th>Packets</th></tr></thead>
        <tbody>
`)
	if len(summary.Protocols) == 0 {
		b.WriteString("            <tr><td colspan=\"2\">No packets generated.</td></tr>\n")
	}
	for _, p := range summary.Protocols {
		fmt.Fprintf(&b, "            <tr><td>%s</td><td>%d</td></tr>\n", html.EscapeString(string(p.Protocol)), p.Count)
	}

	b.WriteString(`        </tbody>
    </table>

    <h2>Top 10 Sources</h2>
    <table>
        <thead><tr><th>Address</th><th>Data (Bytes)</th></tr></thead>
        <tbody>
`)
	for _, talker := range topTalkers {
		fmt.Fprintf(&b, "            <tr><td>%s</td><td>%d</td></tr>\n", html.EscapeString(talker.IP), talker.Bytes)
	}

	b.WriteString(`        </tbody>
    </table>

    <h2>Packets In Feed</h2>
    <table>
        <thead><tr><th>ID</th><th>Time</th><th>Protocol</th><th>Source</th><th>Destination</th><th>Size</th><th>Flags</th><th>Payload</th></tr></thead>
        <tbody>
`)
	if len(records) == 0 {
		b.WriteString("            <tr><td colspan=\"8\">Feed is empty.</td></tr>\n")
	}
	for _, r := range records {
		fmt.Fprintf(&b, "            <tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>\n",
			r.ID, html.EscapeString(r.Timestamp), html.EscapeString(string(r.Protocol)),
			html.EscapeString(r.Source), html.EscapeString(r.Destination), r.Size,
			html.EscapeString(r.Flags), html.EscapeString(r.Payload))
	}

	b.WriteString(`        </tbody>
    </table>
</body>
</html>
`)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
