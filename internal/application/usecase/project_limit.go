package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/domain/event"
	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/internal/domain/service"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
)

// ProjectLimitUseCase runs a limit check and holds the projection for the
// session's next step.
type ProjectLimitUseCase struct {
	engine      *service.LimitProjectionEngine
	projections port.ProjectionStore
	publisher   port.EventPublisher
	metrics     Metrics
	ceiling     decimal.Decimal
	logger      *slog.Logger
}

// NewProjectLimitUseCase wires dependencies. A zero ceiling disables the cap.
func NewProjectLimitUseCase(
	engine *service.LimitProjectionEngine,
	projections port.ProjectionStore,
	publisher port.EventPublisher,
	metrics Metrics,
	ceiling decimal.Decimal,
	logger *slog.Logger,
) *ProjectLimitUseCase {
	return &ProjectLimitUseCase{
		engine:      engine,
		projections: projections,
		publisher:   publisher,
		metrics:     metrics,
		ceiling:     ceiling,
		logger:      logger,
	}
}

// Execute projects, caps and stores the limit.
func (uc *ProjectLimitUseCase) Execute(ctx context.Context, req dto.ProjectLimitRequest) (dto.ProjectionResponse, error) {
	// 1. Project.
	projection, err := uc.engine.Project(req.BaseLimit, valueobject.BehavioralSignals{
		PayFast:      req.PayFast,
		FrequentUser: req.FrequentUser,
		HighInflow:   req.HighInflow,
		Stagnant:     req.Stagnant,
	})
	if err != nil {
		return dto.ProjectionResponse{}, fmt.Errorf("project limit: %w", err)
	}

	// 2. Apply the product ceiling.
	projection, capped := service.CapProjection(projection, uc.ceiling)

	// 3. Hold it for the session.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := uc.projections.Put(ctx, sessionID, projection); err != nil {
		return dto.ProjectionResponse{}, fmt.Errorf("store projection: %w", err)
	}

	uc.metrics.LimitProjected(projection.IncreasePercent, capped)
	publishEvents(ctx, uc.publisher, uc.logger, event.NewLimitProjected(
		sessionID, projection.BaseLimit, projection.ProjectedLimit, projection.IncreasePercent, capped,
	))

	return dto.ProjectionResponse{
		SessionID:       sessionID,
		BaseLimit:       projection.BaseLimit,
		ProjectedLimit:  projection.ProjectedLimit,
		IncreasePercent: projection.IncreasePercent,
		Capped:          capped,
	}, nil
}
