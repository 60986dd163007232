package analysis

import (
	"context"
	"strings"

	"cvpilot/internal/ai"
	"cvpilot/internal/errors"
	"cvpilot/internal/types"
)

// SkipRecommendationThreshold is the score below which a position is worth
// skipping rather than optimizing. A skip recommendation is advice to the
// orchestrator, never an error.
const SkipRecommendationThreshold = 2

// PositionAnalyzer scores a single experience entry against a job
// description. Isolation is structural: only the one position ever reaches
// the provider, so sibling positions and other sections cannot leak into the
// evaluation and shift the score.
type PositionAnalyzer struct {
	provider ai.Provider
	logger   *errors.Logger
}

// NewPositionAnalyzer creates a position analyzer backed by the given provider
func NewPositionAnalyzer(provider ai.Provider, logger *errors.Logger) *PositionAnalyzer {
	return &PositionAnalyzer{
		provider: provider,
		logger:   logger,
	}
}

// Analyze scores one position. Gaps and strengths are scoped to this
// position's stated duties only.
func (a *PositionAnalyzer) Analyze(ctx context.Context, position types.Position, jobDescription string, optimizedPass bool) (types.PositionAnalysis, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return types.PositionAnalysis{}, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"No job description to analyze against", nil)
	}

	result, _, err := a.provider.AnalyzePosition(ctx, ai.AnalyzePositionInput{
		Position:       position,
		JobDescription: jobDescription,
		OptimizedPass:  optimizedPass,
		Language:       DetectLanguage(jobDescription),
	})
	if err != nil {
		return types.PositionAnalysis{}, err
	}

	if err := validateScore(result.Score, "position"); err != nil {
		return types.PositionAnalysis{}, err
	}

	a.logger.Debug("Position analysis completed",
		"company", position.Company,
		"title", position.Title,
		"score", result.Score,
		"optimized_pass", optimizedPass)

	return result, nil
}

// RecommendSkip reports whether the position scored low enough that
// optimizing it is unlikely to pay off.
func RecommendSkip(a types.PositionAnalysis) bool {
	return a.Score < SkipRecommendationThreshold
}
