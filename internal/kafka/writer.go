package kafka

import (
	"context"
	"fmt"
	"log"

	segmentio "github.com/segmentio/kafka-go"
)

// WriterProducer sends messages through kafka-go. A single writer serves all
// topics; the topic is set per message.
type WriterProducer struct {
	writer *segmentio.Writer
}

func NewWriterProducer(brokers []string) Producer {
	log.Printf("Initialized Kafka producer for brokers %v", brokers)
	return &WriterProducer{
		writer: &segmentio.Writer{
			Addr:         segmentio.TCP(brokers...),
			Balancer:     &segmentio.LeastBytes{},
			RequiredAcks: segmentio.RequireOne,
		},
	}
}

func (p *WriterProducer) SendMessage(ctx context.Context, topic string, key []byte, value []byte) error {
	err := p.writer.WriteMessages(ctx, segmentio.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to topic %s: %w", topic, err)
	}
	return nil
}

func (p *WriterProducer) Close() error {
	return p.writer.Close()
}
