package analysis

import (
	"context"
	"fmt"
	"strings"

	"cvpilot/internal/ai"
	"cvpilot/internal/errors"
	"cvpilot/internal/types"
)

// GapAnalyzer scores a CV, or a single section of one, against a job
// description. Scores come back on a fixed 1-5 scale; anything outside that
// domain is a contract violation surfaced as an error, never coerced, because
// clamping would make before/after scores incomparable.
type GapAnalyzer struct {
	provider ai.Provider
	logger   *errors.Logger
}

// NewGapAnalyzer creates an analyzer backed by the given provider
func NewGapAnalyzer(provider ai.Provider, logger *errors.Logger) *GapAnalyzer {
	return &GapAnalyzer{
		provider: provider,
		logger:   logger,
	}
}

// AnalyzeMatch scores the whole CV across the four rubrics plus overall and
// seniority fit. With optimizedPass set, only the given content is evaluated,
// with no reference to any earlier version of the document.
func (a *GapAnalyzer) AnalyzeMatch(ctx context.Context, cv types.CVDocument, jobDescription string, optimizedPass bool) (types.MatchAnalysis, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return types.MatchAnalysis{}, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"No job description to analyze against", nil)
	}

	result, _, err := a.provider.AnalyzeMatch(ctx, ai.AnalyzeMatchInput{
		CV:             cv,
		JobDescription: jobDescription,
		OptimizedPass:  optimizedPass,
		Language:       DetectLanguage(jobDescription),
	})
	if err != nil {
		return types.MatchAnalysis{}, err
	}

	if err := validateMatchScores(result); err != nil {
		return types.MatchAnalysis{}, err
	}

	a.logger.Debug("Match analysis completed",
		"overall_score", result.OverallFit.Score,
		"seniority_score", result.SeniorityFit.Score,
		"seniority_level", result.SeniorityFit.Level,
		"optimized_pass", optimizedPass)

	return result, nil
}

// AnalyzeSection re-scores one text section in isolation
func (a *GapAnalyzer) AnalyzeSection(ctx context.Context, section types.SectionKey, content, jobDescription string, optimizedPass bool) (types.GapAnalysis, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return types.GapAnalysis{}, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"No job description to analyze against", nil)
	}

	result, _, err := a.provider.AnalyzeSection(ctx, ai.AnalyzeSectionInput{
		Section:        section,
		Content:        content,
		JobDescription: jobDescription,
		OptimizedPass:  optimizedPass,
		Language:       DetectLanguage(jobDescription),
	})
	if err != nil {
		return types.GapAnalysis{}, err
	}

	if err := validateScore(result.Score, string(section)); err != nil {
		return types.GapAnalysis{}, err
	}

	return result, nil
}

// validateMatchScores checks every score in a match analysis against the 1-5
// domain. The generation schema already constrains these, but the score
// contract is load-bearing for session comparisons, so it is enforced here
// independently of the provider.
func validateMatchScores(m types.MatchAnalysis) error {
	checks := []struct {
		name  string
		score int
	}{
		{"overallFit", m.OverallFit.Score},
		{"seniorityFit", m.SeniorityFit.Score},
		{"summary", m.GapAnalysis.Summary.Score},
		{"skills", m.GapAnalysis.Skills.Score},
		{"experience", m.GapAnalysis.Experience.Score},
		{"education", m.GapAnalysis.Education.Score},
	}
	for _, c := range checks {
		if err := validateScore(c.score, c.name); err != nil {
			return err
		}
	}

	switch m.SeniorityFit.Level {
	case types.SeniorityUnderQualified, types.SeniorityWellMatched, types.SeniorityOverQualified:
	default:
		return errors.NewAnalysisError(errors.ErrCodeMalformedScore,
			fmt.Sprintf("Unknown seniority level %q", m.SeniorityFit.Level), nil)
	}

	return nil
}

// validateScore rejects scores outside the 1-5 domain
func validateScore(score int, rubric string) error {
	if score < 1 || score > 5 {
		return errors.NewAnalysisError(errors.ErrCodeMalformedScore,
			fmt.Sprintf("Score %d for rubric %q is outside the 1-5 domain", score, rubric), nil)
	}
	return nil
}
