package commands

import (
	"context"
	"encoding/json"
	"time"

	"contracthub/contexts/progression/job-service/domain/entities"
	"contracthub/contexts/progression/job-service/ports"

	"go.opentelemetry.io/otel/trace"
)

const sourceService = "job-service"

// newJobEnvelope stamps the active trace id when ctx carries a span, and the
// event id otherwise.
func newJobEnvelope(
	ctx context.Context,
	eventID string,
	eventType string,
	jobID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	traceID := eventID
	if spanContext := trace.SpanContextFromContext(ctx); spanContext.HasTraceID() {
		traceID = spanContext.TraceID().String()
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          traceID,
		SchemaVersion:    1,
		PartitionKeyPath: "job_id",
		PartitionKey:     jobID,
		Data:             payload,
	}, nil
}

// envelopeBuilder collects outbox rows for one transition.
type envelopeBuilder struct {
	idGen  ports.IDGenerator
	job    entities.Job
	now    time.Time
	events []ports.EventEnvelope
	err    error
}

func newEnvelopeBuilder(idGen ports.IDGenerator, job entities.Job, now time.Time) *envelopeBuilder {
	return &envelopeBuilder{idGen: idGen, job: job, now: now}
}

func (b *envelopeBuilder) add(ctx context.Context, eventType string, data map[string]any) {
	if b.err != nil {
		return
	}
	eventID, err := b.idGen.NewID(ctx)
	if err != nil {
		b.err = err
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["job_id"] = b.job.JobID
	data["user_id"] = b.job.UserID
	data["contract_id"] = b.job.ContractID
	data["status"] = string(b.job.Status)
	data["current_stage_number"] = b.job.CurrentStageNumber
	envelope, err := newJobEnvelope(ctx, eventID, eventType, b.job.JobID, b.now, data)
	if err != nil {
		b.err = err
		return
	}
	b.events = append(b.events, envelope)
}

func (b *envelopeBuilder) build() ([]ports.EventEnvelope, error) {
	return b.events, b.err
}
