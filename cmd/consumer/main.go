package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/171k/ICT602-Laundroyale/internal/config"
)

const groupID = "laundroyale-consumer-group"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	brokers := cfg.KafkaBrokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	topics := []string{cfg.EventsTopic, cfg.RepairTopic, cfg.AuditTopic}
	log.Printf("Starting consumer for topics %v on brokers %v", topics, brokers)

	var wg sync.WaitGroup
	for _, topic := range topics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			consumeTopic(ctx, brokers, topic)
		}(topic)
	}

	wg.Wait()
	log.Println("Consumer stopped.")
}

func consumeTopic(ctx context.Context, brokers []string, topic string) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Printf("Error closing reader for %s: %v", topic, err)
		}
	}()

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("Context cancelled, exiting %s loop.", topic)
				return
			}
			log.Printf("Error reading message from %s: %v", topic, err)
			time.Sleep(5 * time.Second)
			continue
		}

		fmt.Printf("\n--- MESSAGE ---\n")
		fmt.Printf("Topic:     %s\n", m.Topic)
		fmt.Printf("Timestamp: %s\n", m.Time.Format(time.RFC3339))
		fmt.Printf("Partition: %d\n", m.Partition)
		fmt.Printf("Offset:    %d\n", m.Offset)
		fmt.Printf("Key:       %s\n", string(m.Key))
		fmt.Printf("Value:     %s\n", string(m.Value))
		fmt.Println("--- END ---")
	}
}
