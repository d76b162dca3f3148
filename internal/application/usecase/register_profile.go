package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
)

// RegisterProfileUseCase creates the profile of a signed-up user, adopting a
// limit check made earlier in the same session.
type RegisterProfileUseCase struct {
	profiles    port.ProfileStore
	projections port.ProjectionStore
	publisher   port.EventPublisher
	logger      *slog.Logger
}

// NewRegisterProfileUseCase wires dependencies.
func NewRegisterProfileUseCase(
	profiles port.ProfileStore,
	projections port.ProjectionStore,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *RegisterProfileUseCase {
	return &RegisterProfileUseCase{profiles: profiles, projections: projections, publisher: publisher, logger: logger}
}

// Execute registers the profile.
func (uc *RegisterProfileUseCase) Execute(ctx context.Context, req dto.RegisterProfileRequest) (dto.ProfileResponse, error) {
	if req.UID == "" {
		return dto.ProfileResponse{}, ErrMissingIdentity
	}

	// 1. Refuse duplicates.
	_, err := uc.profiles.Get(ctx, req.UID)
	switch {
	case err == nil:
		return dto.ProfileResponse{}, ErrProfileExists
	case !errors.Is(err, model.ErrProfileNotFound):
		return dto.ProfileResponse{}, fmt.Errorf("load profile: %w", err)
	}

	ts := now()
	profile, err := model.NewProfile(req.UID, req.FullName, req.Email, req.Phone, ts)
	if err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("create profile: %w", err)
	}

	// 2. Adopt a pending limit check.
	if req.SessionID != "" {
		projection, err := uc.projections.Get(ctx, req.SessionID)
		if err != nil {
			uc.logger.WarnContext(ctx, "projection lookup failed", "session_id", req.SessionID, "error", err)
		}
		if projection != nil {
			if profile, err = profile.ApplyProjection(*projection, ts); err != nil {
				return dto.ProfileResponse{}, fmt.Errorf("apply projection: %w", err)
			}
			if err := uc.projections.Delete(ctx, req.SessionID); err != nil {
				uc.logger.WarnContext(ctx, "projection delete failed", "session_id", req.SessionID, "error", err)
			}
		}
	}

	// 3. Persist.
	if err := uc.profiles.Save(ctx, profile); err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("save profile: %w", err)
	}

	publishEvents(ctx, uc.publisher, uc.logger, profile.DomainEvents()...)
	return toProfileResponse(profile), nil
}
