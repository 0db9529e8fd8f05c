package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"gamesniff/internal/analysis"
	"gamesniff/internal/models"
	"gamesniff/internal/reporting"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case TickMsg:
		m.refresh()
		return m, tickCmd()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		if handled, cmd := m.handleKey(msg.String()); handled {
			m.refresh()
			return m, cmd
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleKey runs the browse mode shortcuts.
func (m *Model) handleKey(key string) (bool, tea.Cmd) {
	switch key {
	case "q":
		return true, tea.Quit
	case "s":
		m.sess.Start()
		m.setStatus("Capture started")
	case "x":
		m.sess.Stop()
		m.setStatus("Capture stopped")
	case "c":
		m.sess.Clear()
		m.setStatus("Feed cleared")
	case "enter":
		if id, ok := m.selectedID(); ok {
			m.sess.Select(id)
		}
	case "esc":
		m.sess.Deselect()
	case "/":
		m.prevFilter = m.state.Filter
		m.input.Prompt = "Filter: "
		m.input.Placeholder = "protocol, address or payload"
		m.input.SetValue(m.state.Filter)
		m.mode = modeFilter
		return true, m.input.Focus()
	case "i":
		if m.state.Running {
			m.setStatus("Stop the capture before importing")
			return true, nil
		}
		m.input.Prompt = "Import file: "
		m.input.Placeholder = "capture.pcap"
		m.input.SetValue("")
		m.mode = modeImport
		return true, m.input.Focus()
	case "e":
		m.export("JSON", reporting.ExportJSON)
	case "p":
		m.export("PCAP", reporting.ExportPCAP)
	case "r":
		records := m.sess.Records()
		path, err := reporting.GenerateSessionReport(m.exportDir, analysis.FromRecords(records), records, m.now())
		m.reportResult("report", path, len(records), err)
	default:
		return false, nil
	}
	return true, nil
}

// updateInput handles keys while the filter or import prompt is open.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == modeFilter {
			m.sess.SetFilter(m.prevFilter)
		}
		m.closeInput()
		m.refresh()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		switch m.mode {
		case modeFilter:
			m.sess.SetFilter(value)
		case modeImport:
			if value == "" {
				break
			}
			if m.sess.Import(value) {
				m.setStatus("Importing %s", value)
			} else {
				m.setStatus("Import refused while capturing")
			}
		}
		m.closeInput()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFilter {
		m.sess.SetFilter(m.input.Value())
		m.refresh()
	}
	return m, cmd
}

func (m *Model) closeInput() {
	m.input.Blur()
	m.mode = modeBrowse
}

type exportFunc func(dir string, records []models.PacketRecord, now time.Time) (string, error)

func (m *Model) export(kind string, fn exportFunc) {
	records := m.sess.Records()
	path, err := fn(m.exportDir, records, m.now())
	m.reportResult(kind, path, len(records), err)
}

func (m *Model) reportResult(kind, path string, count int, err error) {
	if err != nil {
		m.log.WithError(err).WithField("kind", kind).Error("export failed")
		m.setStatus("Export failed: %v", err)
		return
	}
	m.log.WithFields(logrus.Fields{"kind": kind, "path": path, "records": count}).Info("exported")
	m.setStatus("%s: %s", exportLabel(kind, count), path)
}

func exportLabel(kind string, count int) string {
	if kind == "report" {
		return "Report written"
	}
	return fmt.Sprintf("Exported %d packets as %s", count, kind)
}
