// Package stream mirrors persisted audit entries onto a Kafka topic for
// downstream consumers such as a SIEM.
package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "medbee/pkg/platform/audit"
)

// producer is the part of *kgo.Client the mirror uses.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaMirror implements audit.Mirror. A circuit breaker stops producing
// while the brokers keep failing so audit writes are not slowed down.
type KafkaMirror struct {
	client  producer
	topic   string
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NewKafkaMirror connects a producer for cfg.Topic.
func NewKafkaMirror(cfg KafkaConfig) (*KafkaMirror, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if trimmed := strings.TrimSpace(b); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(50*time.Millisecond),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return newKafkaMirror(client, cfg.Topic), nil
}

func newKafkaMirror(client producer, topic string) *KafkaMirror {
	return &KafkaMirror{
		client:  client,
		topic:   topic,
		timeout: 5 * time.Second,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "audit-kafka",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Publish produces the entry keyed by actor so one user's entries stay ordered.
func (m *KafkaMirror) Publish(ctx context.Context, entry audit.Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	record := &kgo.Record{
		Topic: m.topic,
		Key:   []byte(entry.ActorID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "method", Value: []byte(entry.Method)},
			{Key: "endpoint", Value: []byte(entry.Endpoint)},
		},
	}
	_, err = m.breaker.Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		return struct{}{}, m.client.ProduceSync(ctx, record).FirstErr()
	})
	if err != nil {
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}

func (m *KafkaMirror) Close() {
	m.client.Close()
}
