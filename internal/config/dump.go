package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Dump writes the effective configuration as YAML. Durations are written
// in their string form so the output loads back through Load.
func (c *Config) Dump(w io.Writer) error {
	doc := map[string]any{
		"feed": c.Feed,
		"capture": map[string]any{
			"tick_period":    c.Capture.TickPeriod.String(),
			"reset_on_start": c.Capture.ResetOnStart,
			"import_delay":   c.Capture.ImportDelay.String(),
			"import_batch":   c.Capture.ImportBatch,
		},
		"web": map[string]any{
			"listen":           c.Web.Listen,
			"refresh_interval": c.Web.RefreshInterval.String(),
		},
		"export": c.Export,
		"log":    c.Log,
		"kafka":  c.Kafka,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
