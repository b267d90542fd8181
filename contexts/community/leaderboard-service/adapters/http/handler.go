package httpadapter

import (
	"context"

	"contracthub/contexts/community/leaderboard-service/application"
	"contracthub/contexts/community/leaderboard-service/domain/entities"
	httptransport "contracthub/contexts/community/leaderboard-service/transport/http"
)

type Handler struct {
	Service application.Service
}

func (h Handler) OverallHandler(ctx context.Context, viewerID string) (httptransport.OverallResponse, error) {
	entries, err := h.Service.Overall(ctx, viewerID)
	if err != nil {
		return httptransport.OverallResponse{}, err
	}
	return httptransport.OverallResponse{Items: mapEntries(entries)}, nil
}

func (h Handler) ContractBoardHandler(
	ctx context.Context,
	viewerID string,
	title string,
) (httptransport.ContractBoardResponse, error) {
	board, err := h.Service.PerContract(ctx, viewerID, title)
	if err != nil {
		return httptransport.ContractBoardResponse{}, err
	}
	return httptransport.ContractBoardResponse{
		Title: board.Title,
		Items: mapEntries(board.Entries),
	}, nil
}

func (h Handler) ContractTitlesHandler(ctx context.Context, viewerID string) (httptransport.ContractTitlesResponse, error) {
	titles, err := h.Service.ContractTitles(ctx, viewerID)
	if err != nil {
		return httptransport.ContractTitlesResponse{}, err
	}
	return httptransport.ContractTitlesResponse{Items: titles}, nil
}

func mapEntries(entries []entities.Entry) []httptransport.EntryDTO {
	items := make([]httptransport.EntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.EntryDTO{
			Rank:          entry.Rank,
			UserID:        entry.UserID,
			DisplayName:   entry.DisplayName,
			ClassID:       entry.ClassID,
			XP:            entry.XP,
			Currency:      entry.Currency,
			CompletedJobs: entry.CompletedJobs,
			Progress:      entry.Progress,
			StageCount:    entry.StageCount,
			Completed:     entry.Completed,
		})
	}
	return items
}
