package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"

	"gorm.io/gorm"
)

// GetContract reads the read-only catalog tables. Stages come back in
// sequence order, though NewJob sorts them again.
func (r *Repository) GetContract(ctx context.Context, contractID string) (entities.ContractDefinition, error) {
	contractID = strings.TrimSpace(contractID)

	var row contractModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ContractDefinition{}, domainerrors.ErrContractNotFound
		}
		return entities.ContractDefinition{}, mapError(err)
	}
	status, err := entities.ParseContractStatus(row.Status)
	if err != nil {
		return entities.ContractDefinition{}, err
	}

	var stageRows []contractStageModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("sequence_number ASC").
		Find(&stageRows).
		Error; err != nil {
		return entities.ContractDefinition{}, mapError(err)
	}

	contract := entities.ContractDefinition{
		ContractID:         row.ContractID,
		Version:            row.Version,
		Title:              row.Title,
		Status:             status,
		BasePayoutCurrency: row.PayoutCurrency,
		BasePayoutXP:       row.PayoutXP,
		CompletionBadge:    row.CompletionBadge,
		Stages:             make([]entities.StageTemplate, 0, len(stageRows)),
	}
	for _, stage := range stageRows {
		contract.Stages = append(contract.Stages, entities.StageTemplate{
			SequenceNumber:  stage.SequenceNumber,
			Name:            stage.Name,
			RequirementText: stage.RequirementText,
			PayoutXP:        stage.PayoutXP,
			PayoutCurrency:  stage.PayoutCurrency,
		})
	}
	return contract, nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
