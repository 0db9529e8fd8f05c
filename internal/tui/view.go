package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gamesniff/internal/inspect"
)

const (
	feedHeight  = 16
	hexDumpRows = 8
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (m Model) View() string {
	st := m.state

	state := idleStyle.Render("IDLE")
	if st.Running {
		state = runningStyle.Render("CAPTURING")
	} else if st.Importing {
		state = runningStyle.Render("IMPORTING")
	}
	title := titleStyle.Render("gamesniff - simulated packet feed") + " " + state +
		fmt.Sprintf("  %d/%d packets", st.Total, st.Capacity)

	var filterLine string
	if m.mode != modeBrowse {
		filterLine = m.input.View()
	} else if st.Filter != "" {
		filterLine = "Filter: " + st.Filter
	} else {
		filterLine = helpStyle.Render("Press / to filter")
	}

	feed := m.table.View()
	if msg := st.FeedPlaceholder(); msg != "" {
		feed = placeholderStyle.Render(msg)
	}
	feedBox := infoStyle.Render("Packets\n" + feed)

	detailBox := infoStyle.Render("Details\n" + m.detailView())

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		filterLine,
		lipgloss.JoinHorizontal(lipgloss.Top, feedBox, detailBox),
		m.statsLine(),
	)
	if m.status != "" {
		body += "\n" + m.status
	}
	return body + "\n" + helpStyle.Render(
		"s start • x stop • c clear • / filter • enter inspect • esc close • i import • e json • p pcap • r report • q quit")
}

func (m Model) detailView() string {
	st := m.state
	if msg := st.DetailPlaceholder(); msg != "" {
		return placeholderStyle.Render(msg)
	}

	var b strings.Builder
	for _, f := range inspect.Format(*st.Selected).Fields() {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(f.Name+":"), f.Value)
	}

	rows := inspect.HexDump(*st.Selected)
	b.WriteString("\n" + labelStyle.Render("Hex dump (synthetic)") + "\n")
	for i, row := range rows {
		if i == hexDumpRows {
			fmt.Fprintf(&b, "... %d more rows", len(rows)-hexDumpRows)
			break
		}
		b.WriteString(row.String() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) statsLine() string {
	sum := m.state.Stats
	if sum.TotalPackets == 0 {
		return ""
	}
	parts := make([]string, 0, len(sum.Protocols))
	for _, p := range sum.Protocols {
		parts = append(parts, fmt.Sprintf("%s %d", p.Protocol, p.Count))
	}
	return fmt.Sprintf(" Generated %d packets (%d out, %d in) | %s",
		sum.TotalPackets, sum.Outgoing, sum.Incoming, strings.Join(parts, ", "))
}
