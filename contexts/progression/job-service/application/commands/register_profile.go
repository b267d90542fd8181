package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "contracthub/contexts/progression/job-service/application"
	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
	"contracthub/contexts/progression/job-service/ports"
)

type RegisterProfileCommand struct {
	UserID      string
	DisplayName string
	ClassID     string
	OrgID       string
	Role        string
}

// RegisterProfileUseCase creates or refreshes the descriptive part of a
// profile. Balances, counters and badges are only ever changed by approvals.
type RegisterProfileUseCase struct {
	Profiles ports.ProfileRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc RegisterProfileUseCase) Execute(ctx context.Context, cmd RegisterProfileCommand) (entities.UserProfile, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return entities.UserProfile{}, domainerrors.ErrInvalidInput
	}

	profile, err := uc.Profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrProfileNotFound) {
			return entities.UserProfile{}, err
		}
		profile = entities.UserProfile{UserID: userID, Badges: map[string]struct{}{}}
	}
	profile.DisplayName = strings.TrimSpace(cmd.DisplayName)
	profile.ClassID = strings.TrimSpace(cmd.ClassID)
	profile.OrgID = strings.TrimSpace(cmd.OrgID)
	if strings.TrimSpace(cmd.Role) != "" || profile.Role == "" {
		profile.Role = entities.ParseUserRole(cmd.Role)
	}
	profile.UpdatedAt = application.Now(uc.Clock)

	if err := uc.Profiles.UpsertProfile(ctx, profile); err != nil {
		return entities.UserProfile{}, err
	}
	logger.Info("user profile registered",
		"event", "user_profile_registered",
		"module", "progression/job-service",
		"layer", "application",
		"user_id", profile.UserID,
		"class_id", profile.ClassID,
	)
	return profile, nil
}
