package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "contracthub/contexts/progression/job-service/application"
	"contracthub/contexts/progression/job-service/ports"
	eventsv1 "contracthub/contracts/gen/events/v1"
)

const completionFeedGroup = "job-service-completion-feed"

// CompletionFeed follows job.completed change events. Handled events are
// passed to OnCompleted when it is set.
type CompletionFeed struct {
	Subscriber  ports.EventSubscriber
	OnCompleted func(ctx context.Context, jobID string, userID string) error
	Logger      *slog.Logger
}

type completedPayload struct {
	JobID      string `json:"job_id"`
	UserID     string `json:"user_id"`
	ContractID string `json:"contract_id"`
	Badge      string `json:"badge"`
}

func (f CompletionFeed) Start(ctx context.Context) error {
	return f.Subscriber.Subscribe(ctx, eventsv1.EventJobCompleted, completionFeedGroup, f.handle)
}

func (f CompletionFeed) handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(f.Logger)
	var payload completedPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("job completion event decode failed",
			"event", "job_completion_feed_decode_failed",
			"module", "progression/job-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("job completion observed",
		"event", "job_completion_observed",
		"module", "progression/job-service",
		"layer", "worker",
		"event_id", event.EventID,
		"job_id", payload.JobID,
		"user_id", payload.UserID,
		"contract_id", payload.ContractID,
		"badge", payload.Badge,
	)
	if f.OnCompleted == nil {
		return nil
	}
	return f.OnCompleted(ctx, payload.JobID, payload.UserID)
}
