package output

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"

	"gamesniff/internal/models"
)

// KafkaOutput publishes each record as a JSON message keyed by record id.
type KafkaOutput struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaOutput connects a synchronous producer to brokers.
func NewKafkaOutput(brokers []string, topic string) (*KafkaOutput, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaOutputWithProducer(producer, topic), nil
}

// NewKafkaOutputWithProducer wraps an existing producer.
func NewKafkaOutputWithProducer(producer sarama.SyncProducer, topic string) *KafkaOutput {
	return &KafkaOutput{
		producer: producer,
		topic:    topic,
	}
}

func (k *KafkaOutput) Consume(rec models.PacketRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %d: %w", rec.ID, err)
	}

	message := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(rec.ID, 10)),
		Value: sarama.ByteEncoder(value),
	}

	if _, _, err := k.producer.SendMessage(message); err != nil {
		return fmt.Errorf("failed to publish record %d: %w", rec.ID, err)
	}
	return nil
}

func (k *KafkaOutput) Close() error {
	return k.producer.Close()
}
