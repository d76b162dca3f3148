package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/internal/domain/service"
)

// Where the maximum limit of a package list came from.
const (
	LimitSourceProjection = "projection"
	LimitSourceProfile    = "profile"
	LimitSourceFallback   = "fallback"
)

// limitResolver finds the maximum limit that tiers are generated from. It is
// shared by package listing and checkout so both price the same tiers.
type limitResolver struct {
	profiles    port.ProfileStore
	projections port.ProjectionStore
	generator   *service.TierGenerator
}

func (r limitResolver) resolve(ctx context.Context, uid, sessionID string) (decimal.Decimal, string, error) {
	var projection *model.LimitProjection
	if sessionID != "" {
		p, err := r.projections.Get(ctx, sessionID)
		if err != nil {
			return decimal.Zero, "", fmt.Errorf("load projection: %w", err)
		}
		projection = p
	}

	profileLimit := decimal.Zero
	if uid != "" {
		profile, err := r.profiles.Get(ctx, uid)
		switch {
		case err == nil:
			profileLimit = profile.EligibleLimit()
		case !errors.Is(err, model.ErrProfileNotFound):
			return decimal.Zero, "", fmt.Errorf("load profile: %w", err)
		}
	}

	maxLimit := r.generator.ResolveMaxLimit(projection, profileLimit)
	switch {
	case projection != nil && maxLimit.Equal(projection.ProjectedLimit):
		return maxLimit, LimitSourceProjection, nil
	case profileLimit.IsPositive():
		return maxLimit, LimitSourceProfile, nil
	default:
		return maxLimit, LimitSourceFallback, nil
	}
}

// ListPackagesUseCase prices the Bronze, Silver and Gold packages.
type ListPackagesUseCase struct {
	resolver limitResolver
}

// NewListPackagesUseCase wires dependencies.
func NewListPackagesUseCase(profiles port.ProfileStore, projections port.ProjectionStore, generator *service.TierGenerator) *ListPackagesUseCase {
	return &ListPackagesUseCase{resolver: limitResolver{profiles: profiles, projections: projections, generator: generator}}
}

// Execute lists the packages for a user or an anonymous session.
func (uc *ListPackagesUseCase) Execute(ctx context.Context, req dto.ListPackagesRequest) (dto.PackagesResponse, error) {
	maxLimit, source, err := uc.resolver.resolve(ctx, req.UID, req.SessionID)
	if err != nil {
		return dto.PackagesResponse{}, err
	}

	tiers := uc.resolver.generator.Generate(maxLimit)
	resp := dto.PackagesResponse{
		MaxLimit: tiers[len(tiers)-1].Limit,
		Source:   source,
		Tiers:    make([]dto.TierResponse, 0, len(tiers)),
	}
	for _, t := range tiers {
		resp.Tiers = append(resp.Tiers, toTierResponse(t))
	}
	return resp, nil
}
