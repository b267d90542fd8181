package ports

import (
	"context"
	"time"

	"contracthub/contexts/rewards/reward-engine/domain/entities"
	"contracthub/contexts/rewards/reward-engine/domain/services"
)

// EventCatalog is the read side of promotional event definitions.
type EventCatalog interface {
	ListEvents(ctx context.Context) ([]entities.Event, error)
	GetEvent(ctx context.Context, eventID string) (entities.Event, error)
}

type RandomSource = services.RandomSource

type Clock interface {
	Now() time.Time
}
