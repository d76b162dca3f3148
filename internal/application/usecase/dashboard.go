package usecase

import (
	"context"
	"fmt"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/domain/port"
)

// Score gauge bounds for the dashboard.
const (
	scoreFloor = 300
	scoreSpan  = 550
)

// GetProfileUseCase returns a single profile.
type GetProfileUseCase struct {
	profiles port.ProfileStore
}

// NewGetProfileUseCase wires dependencies.
func NewGetProfileUseCase(profiles port.ProfileStore) *GetProfileUseCase {
	return &GetProfileUseCase{profiles: profiles}
}

// Execute loads the profile of uid.
func (uc *GetProfileUseCase) Execute(ctx context.Context, uid string) (dto.ProfileResponse, error) {
	if uid == "" {
		return dto.ProfileResponse{}, ErrMissingIdentity
	}
	profile, err := uc.profiles.Get(ctx, uid)
	if err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("load profile: %w", err)
	}
	return toProfileResponse(profile), nil
}

// GetDashboardUseCase assembles the profile, the score gauge and the
// application history.
type GetDashboardUseCase struct {
	profiles     port.ProfileStore
	applications port.ApplicationRepository
}

// NewGetDashboardUseCase wires dependencies.
func NewGetDashboardUseCase(profiles port.ProfileStore, applications port.ApplicationRepository) *GetDashboardUseCase {
	return &GetDashboardUseCase{profiles: profiles, applications: applications}
}

// Execute builds the dashboard of uid.
func (uc *GetDashboardUseCase) Execute(ctx context.Context, uid string) (dto.DashboardResponse, error) {
	if uid == "" {
		return dto.DashboardResponse{}, ErrMissingIdentity
	}

	profile, err := uc.profiles.Get(ctx, uid)
	if err != nil {
		return dto.DashboardResponse{}, fmt.Errorf("load profile: %w", err)
	}
	apps, err := uc.applications.ListByUser(ctx, uid)
	if err != nil {
		return dto.DashboardResponse{}, fmt.Errorf("list applications: %w", err)
	}

	resp := dto.DashboardResponse{
		Profile:      toProfileResponse(profile),
		ScorePercent: ScorePercent(profile.CreditScore()),
		Applications: make([]dto.ApplicationResponse, 0, len(apps)),
	}
	for _, a := range apps {
		if a.IsPending() {
			resp.HasPendingApp = true
		}
		resp.Applications = append(resp.Applications, toApplicationResponse(a))
	}
	return resp, nil
}

// ScorePercent maps a credit score onto a 0-100 gauge.
func ScorePercent(score int) int {
	pct := (score - scoreFloor) * 100 / scoreSpan
	return max(0, min(100, pct))
}
