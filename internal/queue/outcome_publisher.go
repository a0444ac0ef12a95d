package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/acme/coldcall-agent/internal/domain"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutcomePublisher publishes call outcomes for the lead worker. It satisfies campaign.OutcomeRecorder.
type OutcomePublisher struct {
	writer MessageWriter
	now    func() time.Time
}

// NewOutcomePublisher constructs a publisher for the given topic.
func NewOutcomePublisher(k *Kafka, topic string) *OutcomePublisher {
	return newOutcomePublisher(k.NewWriter(topic))
}

func newOutcomePublisher(w MessageWriter) *OutcomePublisher {
	return &OutcomePublisher{writer: w, now: time.Now}
}

// RecordOutcome emits the outcome keyed by call id.
func (p *OutcomePublisher) RecordOutcome(ctx context.Context, o domain.CallOutcome) error {
	now := p.now().UTC()
	value, err := json.Marshal(NewOutcomeMessage(o, now))
	if err != nil {
		return fmt.Errorf("outcome publisher: marshal message: %w", err)
	}
	record := kafka.Message{
		Key:   o.CallID[:],
		Value: value,
		Time:  now,
	}
	if err := p.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("outcome publisher: write message: %w", err)
	}
	return nil
}

// Close closes the publisher.
func (p *OutcomePublisher) Close() error {
	return p.writer.Close()
}
