// Package queue carries call outcome events over Kafka.
package queue

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/acme/coldcall-agent/internal/config"
)

const dialTimeout = 10 * time.Second

// Kafka builds readers and writers against the configured brokers.
type Kafka struct {
	brokers        []string
	clientID       string
	commitInterval time.Duration
	transport      *kafka.Transport
}

// NewKafka initializes the Kafka helper. Writers share one transport.
func NewKafka(cfg config.KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	return &Kafka{
		brokers:        cfg.Brokers,
		clientID:       cfg.ClientID,
		commitInterval: cfg.CommitInterval,
		transport:      &kafka.Transport{ClientID: cfg.ClientID, DialTimeout: dialTimeout},
	}, nil
}

// NewWriter creates a synchronous writer for topic. Messages with the same key land on the same partition.
// Outcomes are written one at a time, so batches are flushed almost immediately.
func (k *Kafka) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(k.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		Transport:    k.transport,
	}
}

// NewReader creates a consumer-group reader for topic starting from the oldest unread offset.
func (k *Kafka) NewReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        k.brokers,
		Topic:          topic,
		GroupID:        groupID,
		Dialer:         &kafka.Dialer{Timeout: dialTimeout, ClientID: k.clientID},
		StartOffset:    kafka.FirstOffset,
		CommitInterval: k.commitInterval,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
	})
}

// EnsureTopics creates missing topics through the cluster controller.
func (k *Kafka) EnsureTopics(ctx context.Context, topics []string, partitions int, replicationFactor int) error {
	dialer := &kafka.Dialer{Timeout: dialTimeout, ClientID: k.clientID}
	conn, err := dialer.DialContext(ctx, "tcp", k.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka: dial: %w", err)
	}
	defer conn.Close()

	existing, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("kafka: read partitions: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		known[p.Topic] = struct{}{}
	}

	var missing []kafka.TopicConfig
	for _, topic := range topics {
		if _, ok := known[topic]; ok {
			continue
		}
		missing = append(missing, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: replicationFactor,
		})
	}
	if len(missing) == 0 {
		return nil
	}

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka: find controller: %w", err)
	}
	cc, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("kafka: dial controller: %w", err)
	}
	defer cc.Close()

	if err := cc.CreateTopics(missing...); err != nil {
		return fmt.Errorf("kafka: create topics: %w", err)
	}
	return nil
}
