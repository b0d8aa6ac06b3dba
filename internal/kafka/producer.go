package kafka

import (
	"context"
	"fmt"
	"log"
	"time"
)

type Producer interface {
	SendMessage(ctx context.Context, topic string, key []byte, value []byte) error
	Close() error
}

// ConsoleProducer prints messages instead of sending them. Used when no
// broker is configured, so the outbox pipeline stays runnable locally.
type ConsoleProducer struct{}

func NewConsoleProducer() Producer {
	log.Println("Initialized console producer (no Kafka brokers configured)")
	return &ConsoleProducer{}
}

func (p *ConsoleProducer) SendMessage(ctx context.Context, topic string, key []byte, value []byte) error {
	select {
	case <-time.After(50 * time.Millisecond):
		fmt.Printf("\n--- PRODUCER (CONSOLE) ---\n")
		fmt.Printf("Topic: %s\n", topic)
		fmt.Printf("Key: %s\n", string(key))
		fmt.Printf("Value: %s\n", string(value))
		fmt.Printf("--- END ---\n")
		return nil
	case <-ctx.Done():
		log.Printf("PRODUCER (CANCELLED): Topic=[%s], Key=[%s]", topic, string(key))
		return ctx.Err()
	}
}

func (p *ConsoleProducer) Close() error {
	log.Println("Closing console producer")
	return nil
}
