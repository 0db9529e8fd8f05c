package session

import (
	"gamesniff/internal/analysis"
	"gamesniff/internal/models"
)

// Placeholder texts shown instead of an empty list or detail panel.
const (
	MsgNoCapture   = "No packets captured yet. Start a capture or import a file."
	MsgWaiting     = "Waiting for packets..."
	MsgImporting   = "Processing capture file..."
	MsgNoMatch     = "No packets match the current filter."
	MsgNoSelection = "Select a packet to inspect its details."
)

// State is the observable session state handed to renderers.
type State struct {
	SessionID string                `json:"session_id"`
	Running   bool                  `json:"running"`
	Importing bool                  `json:"importing"`
	Filter    string                `json:"filter"`
	Records   []models.PacketRecord `json:"records"` // filtered view, oldest first
	Total     int                   `json:"total"`   // records in the feed before filtering
	Capacity  int                   `json:"capacity"`
	Selected  *models.PacketRecord  `json:"selected"`
	Stats     analysis.Summary      `json:"stats"`
	Version   uint64                `json:"version"` // changes whenever anything above does
}

// FeedPlaceholder returns the message to render in place of the record
// list, or "" when there are records to show.
func (st State) FeedPlaceholder() string {
	switch {
	case len(st.Records) > 0:
		return ""
	case st.Total > 0:
		return MsgNoMatch
	case st.Importing:
		return MsgImporting
	case st.Running:
		return MsgWaiting
	default:
		return MsgNoCapture
	}
}

// DetailPlaceholder returns the message to render in place of the detail
// panel, or "" when a record is selected.
func (st State) DetailPlaceholder() string {
	if st.Selected != nil {
		return ""
	}
	return MsgNoSelection
}
