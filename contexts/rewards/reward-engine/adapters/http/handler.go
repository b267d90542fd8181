package httpadapter

import (
	"context"
	"time"

	"contracthub/contexts/rewards/reward-engine/application"
	"contracthub/contexts/rewards/reward-engine/domain/entities"
	domainerrors "contracthub/contexts/rewards/reward-engine/domain/errors"
	httptransport "contracthub/contexts/rewards/reward-engine/transport/http"

	"github.com/go-playground/validator/v10"
)

type Handler struct {
	Service  application.Service
	Validate *validator.Validate
}

var defaultValidator = validator.New()

func (h Handler) ListActiveEventsHandler(
	ctx context.Context,
	query httptransport.ListActiveEventsQuery,
) (httptransport.ListActiveEventsResponse, error) {
	validate := h.Validate
	if validate == nil {
		validate = defaultValidator
	}
	if err := validate.Struct(query); err != nil {
		return httptransport.ListActiveEventsResponse{}, domainerrors.ErrInvalidInput
	}
	items, err := h.Service.ListActiveEvents(ctx, query.ClassID, query.OrgID, query.SubmissionType)
	if err != nil {
		return httptransport.ListActiveEventsResponse{}, err
	}
	result := make([]httptransport.EventDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapEvent(item))
	}
	return httptransport.ListActiveEventsResponse{Items: result}, nil
}

func mapEvent(event entities.Event) httptransport.EventDTO {
	dto := httptransport.EventDTO{
		EventID:           event.EventID,
		Name:              event.Name,
		Scope:             event.Scope,
		ClassIDs:          event.ClassIDs,
		AppliesToTypes:    event.AppliesToTypes,
		OneTimePerUser:    event.OneTimePerUser,
		XPPercent:         event.XPPercent,
		CurrencyPercent:   event.CurrencyPercent,
		FlatCurrencyBonus: event.FlatCurrencyBonus,
	}
	if event.StartAt != nil {
		dto.StartAt = event.StartAt.UTC().Format(time.RFC3339)
	}
	if event.EndAt != nil {
		dto.EndAt = event.EndAt.UTC().Format(time.RFC3339)
	}
	if event.RandomCurrencyBonus != nil {
		dto.RandomCurrencyBonus = &httptransport.RandomRangeDTO{
			Min: event.RandomCurrencyBonus.Min,
			Max: event.RandomCurrencyBonus.Max,
		}
	}
	return dto
}
