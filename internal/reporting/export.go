package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gamesniff/internal/models"
)

// FileTimeLayout is the timestamp used in export file names.
const FileTimeLayout = "2006-01-02T15-04-05Z"

// FileName returns "packet-capture-<timestamp>.json".
func FileName(now time.Time) string {
	return fmt.Sprintf("packet-capture-%s.json", now.UTC().Format(FileTimeLayout))
}

// WriteJSON writes records as an indented JSON array. No records yields [].
func WriteJSON(w io.Writer, records []models.PacketRecord) error {
	if records == nil {
		records = []models.PacketRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

// ReadJSON reads an array written by WriteJSON.
func ReadJSON(r io.Reader) ([]models.PacketRecord, error) {
	var records []models.PacketRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// ExportJSON writes records to dir/FileName(now) and returns the path.
func ExportJSON(dir string, records []models.PacketRecord, now time.Time) (string, error) {
	return writeFile(filepath.Join(dir, FileName(now)), func(w io.Writer) error {
		return WriteJSON(w, records)
	})
}

func writeFile(path string, write func(io.Writer) error) (string, error) {
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(file); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
