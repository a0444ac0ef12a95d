// Package lead consumes outcome events and turns them into contacts and leads.
package lead

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/campaign"
	"github.com/acme/coldcall-agent/internal/queue"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// Reader is the part of *kafka.Reader the worker uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Worker applies outcome events with a recorder, committing each message once handled.
type Worker struct {
	reader   Reader
	recorder campaign.OutcomeRecorder
	log      *logger.Logger
}

// New creates a new lead worker.
func New(reader Reader, recorder campaign.OutcomeRecorder, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{reader: reader, recorder: recorder, log: log.Named("leadworker")}
}

// Run processes outcome events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error("lead worker: fetch", zap.Error(err))
			continue
		}

		w.handle(ctx, msg)

		if err := w.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error("lead worker: commit", zap.Error(err))
		}
	}
}

// handle applies one message. Undecodable messages and recorder failures are logged and skipped.
func (w *Worker) handle(ctx context.Context, msg kafka.Message) {
	var event queue.OutcomeMessage
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.log.Error("lead worker: unmarshal", zap.Int64("offset", msg.Offset), zap.Error(err))
		return
	}

	tracer := otel.Tracer("coldcall.leadworker")
	sctx, span := tracer.Start(ctx, "outcome.apply", trace.WithAttributes(
		attribute.String("call.id", event.CallID.String()),
		attribute.String("campaign.id", event.CampaignID.String()),
		attribute.String("call.outcome", event.Outcome),
	))
	defer span.End()

	if err := w.recorder.RecordOutcome(sctx, event.Domain()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.log.WithContext(sctx).Error("lead worker: record outcome",
			zap.String("call_id", event.CallID.String()),
			zap.Error(err),
		)
	}
}
