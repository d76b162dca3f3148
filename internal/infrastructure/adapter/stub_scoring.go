package adapter

import (
	"context"
	"errors"

	"github.com/barkshad/fuliza/internal/domain/model"
)

// ErrScoringNotConfigured is returned by UnconfiguredScoringClient.
var ErrScoringNotConfigured = errors.New("scoring client not configured")

// UnconfiguredScoringClient is wired when no Gemini key is set. Every call
// fails, so assessments take the scorer's fallback values.
type UnconfiguredScoringClient struct{}

// Score implements port.ScoringClient.
func (UnconfiguredScoringClient) Score(context.Context, string) (model.ScoreReply, error) {
	return model.ScoreReply{}, ErrScoringNotConfigured
}
