package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/internal/domain/service"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
)

// RunAssessmentUseCase scores a user and merges the result into the profile.
type RunAssessmentUseCase struct {
	profiles  port.ProfileStore
	scorer    *service.AssessmentScorer
	publisher port.EventPublisher
	metrics   Metrics
	logger    *slog.Logger
}

// NewRunAssessmentUseCase wires dependencies.
func NewRunAssessmentUseCase(
	profiles port.ProfileStore,
	scorer *service.AssessmentScorer,
	publisher port.EventPublisher,
	metrics Metrics,
	logger *slog.Logger,
) *RunAssessmentUseCase {
	return &RunAssessmentUseCase{profiles: profiles, scorer: scorer, publisher: publisher, metrics: metrics, logger: logger}
}

// Execute runs the assessment. A scoring outage degrades to the fallback
// result and is not an error.
func (uc *RunAssessmentUseCase) Execute(ctx context.Context, req dto.RunAssessmentRequest) (dto.AssessmentResponse, error) {
	if req.UID == "" {
		return dto.AssessmentResponse{}, ErrMissingIdentity
	}
	businessType, err := valueobject.NewBusinessType(req.BusinessType)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("%w: %w", model.ErrInvalidAssessmentInput, err)
	}
	input := model.AssessmentInput{
		MonthlyIncome:   req.MonthlyIncome,
		BusinessType:    businessType,
		YearsInBusiness: req.YearsInBusiness,
	}

	// 1. Load the profile.
	profile, err := uc.profiles.Get(ctx, req.UID)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("load profile: %w", err)
	}

	// 2. Score.
	started := time.Now()
	result, err := uc.scorer.Assess(ctx, input)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("assess: %w", err)
	}
	uc.metrics.AssessmentScored(result.Source, time.Since(started))
	if result.Source != model.ScoreSourceModel {
		uc.logger.InfoContext(ctx, "assessment degraded", "uid", req.UID, "source", result.Source)
	}

	// 3. Merge and persist.
	profile, err = profile.ApplyAssessment(input, result, now())
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("apply assessment: %w", err)
	}
	if err := uc.profiles.Save(ctx, profile); err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("save profile: %w", err)
	}

	publishEvents(ctx, uc.publisher, uc.logger, profile.DomainEvents()...)

	return dto.AssessmentResponse{
		CreditScore:   result.CreditScore,
		EligibleLimit: result.EligibleLimit,
		Report:        result.Report,
		Source:        string(result.Source),
		Profile:       toProfileResponse(profile),
	}, nil
}
