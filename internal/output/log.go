package output

import (
	"github.com/sirupsen/logrus"

	"gamesniff/internal/models"
)

// LogOutput writes one debug entry per record.
type LogOutput struct {
	log logrus.FieldLogger
}

func NewLogOutput(log logrus.FieldLogger) *LogOutput {
	return &LogOutput{log: log.WithField("component", "log-output")}
}

func (o *LogOutput) Consume(rec models.PacketRecord) error {
	o.log.WithFields(logrus.Fields{
		"id":        rec.ID,
		"protocol":  rec.Protocol,
		"source":    rec.Source,
		"dest":      rec.Destination,
		"size":      rec.Size,
		"direction": rec.Direction,
	}).Debug("packet generated")
	return nil
}

func (o *LogOutput) Close() error {
	return nil
}
