// Package tui renders a capture session in the terminal with bubbletea.
package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"gamesniff/internal/session"
)

// RefreshInterval is how often the model polls the session.
const RefreshInterval = 250 * time.Millisecond

// TickMsg triggers a refresh from the session.
type TickMsg time.Time

type inputMode int

const (
	modeBrowse inputMode = iota
	modeFilter
	modeImport
)

type Option func(*Model)

func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Model) { m.log = log }
}

// WithClock sets the clock used to name exported files.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

type Model struct {
	sess      *session.Session
	exportDir string
	log       logrus.FieldLogger
	now       func() time.Time

	state      session.State
	synced     bool
	table      table.Model
	input      textinput.Model
	mode       inputMode
	prevFilter string
	status     string
}

// NewModel creates the terminal view of sess. Exports are written to
// exportDir.
func NewModel(sess *session.Session, exportDir string, opts ...Option) Model {
	columns := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Time", Width: 12},
		{Title: "Proto", Width: 5},
		{Title: "Source", Width: 20},
		{Title: "Destination", Width: 20},
		{Title: "Size", Width: 5},
		{Title: "Flags", Width: 14},
		{Title: "Payload", Width: 24},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(feedHeight),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	in := textinput.New()
	in.CharLimit = 256

	m := Model{
		sess:      sess,
		exportDir: exportDir,
		log:       logrus.StandardLogger(),
		now:       time.Now,
		table:     t,
		input:     in,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.log = m.log.WithField("component", "tui")
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// refresh pulls a snapshot and rebuilds the rows when anything changed.
func (m *Model) refresh() {
	st := m.sess.Snapshot()
	if m.synced && st.Version == m.state.Version {
		return
	}
	m.state = st
	m.synced = true

	// Newest first.
	rows := make([]table.Row, 0, len(st.Records))
	for i := len(st.Records) - 1; i >= 0; i-- {
		rec := st.Records[i]
		rows = append(rows, table.Row{
			strconv.FormatUint(rec.ID, 10),
			rec.Time().Format("15:04:05.000"),
			string(rec.Protocol),
			rec.Source,
			rec.Destination,
			strconv.Itoa(rec.Size),
			rec.Flags,
			rec.Payload,
		})
	}
	m.table.SetRows(rows)
	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

// selectedID returns the id of the row under the cursor.
func (m Model) selectedID() (uint64, bool) {
	row := m.table.SelectedRow()
	if row == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
}
