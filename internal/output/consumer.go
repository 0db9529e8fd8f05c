// Package output forwards generated records to secondary sinks.
package output

import (
	"gamesniff/internal/models"
)

// RecordConsumer receives every record the session generates.
type RecordConsumer interface {
	Consume(rec models.PacketRecord) error
	Close() error
}
