package analysis

import (
	"context"
	"testing"

	"cvpilot/internal/ai"
	cvpilotErrors "cvpilot/internal/errors"
	"cvpilot/internal/types"
)

func validMatchAnalysis() types.MatchAnalysis {
	gap := types.GapAnalysis{Score: 4, Gaps: []string{}, Strengths: []string{}, Questions: []string{}}
	return types.MatchAnalysis{
		OverallFit:   types.OverallFit{Score: 4, Explanation: "strong"},
		SeniorityFit: types.SeniorityFit{Score: 5, Level: types.SeniorityWellMatched, Explanation: "fits"},
		GapAnalysis: types.RubricSet{
			Summary:    gap,
			Skills:     gap,
			Experience: gap,
			Education:  gap,
		},
	}
}

func TestAnalyzeMatch(t *testing.T) {
	t.Run("valid result passes through", func(t *testing.T) {
		provider := &stubProvider{
			analyzeMatch: func(_ context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
				return validMatchAnalysis(), nil, nil
			},
		}

		analyzer := NewGapAnalyzer(provider, testLogger())
		got, err := analyzer.AnalyzeMatch(context.Background(), types.CVDocument{Name: "A"}, "job", false)
		if err != nil {
			t.Fatalf("AnalyzeMatch() error = %v", err)
		}
		if got.OverallFit.Score != 4 {
			t.Errorf("OverallFit.Score = %d, want 4", got.OverallFit.Score)
		}
	})

	t.Run("missing job description blocked", func(t *testing.T) {
		analyzer := NewGapAnalyzer(&stubProvider{}, testLogger())
		_, err := analyzer.AnalyzeMatch(context.Background(), types.CVDocument{Name: "A"}, "", false)
		if err == nil {
			t.Fatal("AnalyzeMatch() error = nil, want missing prerequisite")
		}
		if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeMissingPrereq) {
			t.Errorf("AnalyzeMatch() error = %v, want code %s", err, cvpilotErrors.ErrCodeMissingPrereq)
		}
	})

	t.Run("out of range score rejected not clamped", func(t *testing.T) {
		provider := &stubProvider{
			analyzeMatch: func(_ context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
				m := validMatchAnalysis()
				m.GapAnalysis.Skills.Score = 9
				return m, nil, nil
			},
		}

		analyzer := NewGapAnalyzer(provider, testLogger())
		_, err := analyzer.AnalyzeMatch(context.Background(), types.CVDocument{Name: "A"}, "job", false)
		if err == nil {
			t.Fatal("AnalyzeMatch() error = nil, want malformed score error")
		}
		if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeMalformedScore) {
			t.Errorf("AnalyzeMatch() error = %v, want code %s", err, cvpilotErrors.ErrCodeMalformedScore)
		}
	})

	t.Run("unknown seniority level rejected", func(t *testing.T) {
		provider := &stubProvider{
			analyzeMatch: func(_ context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
				m := validMatchAnalysis()
				m.SeniorityFit.Level = "sideways"
				return m, nil, nil
			},
		}

		analyzer := NewGapAnalyzer(provider, testLogger())
		_, err := analyzer.AnalyzeMatch(context.Background(), types.CVDocument{Name: "A"}, "job", false)
		if err == nil {
			t.Fatal("AnalyzeMatch() error = nil, want malformed score error")
		}
		if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeMalformedScore) {
			t.Errorf("AnalyzeMatch() error = %v, want code %s", err, cvpilotErrors.ErrCodeMalformedScore)
		}
	})

	t.Run("optimized pass flag forwarded", func(t *testing.T) {
		var sawOptimized bool
		provider := &stubProvider{
			analyzeMatch: func(_ context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
				sawOptimized = input.OptimizedPass
				return validMatchAnalysis(), nil, nil
			},
		}

		analyzer := NewGapAnalyzer(provider, testLogger())
		if _, err := analyzer.AnalyzeMatch(context.Background(), types.CVDocument{Name: "A"}, "job", true); err != nil {
			t.Fatalf("AnalyzeMatch() error = %v", err)
		}
		if !sawOptimized {
			t.Error("provider did not receive the optimized pass flag")
		}
	})
}

func TestAnalyzeSection(t *testing.T) {
	t.Run("valid result passes through", func(t *testing.T) {
		provider := &stubProvider{
			analyzeSection: func(_ context.Context, input ai.AnalyzeSectionInput) (types.GapAnalysis, *ai.TokenUsage, error) {
				return types.GapAnalysis{Score: 3, Strengths: []string{"Python"}}, nil, nil
			},
		}

		analyzer := NewGapAnalyzer(provider, testLogger())
		got, err := analyzer.AnalyzeSection(context.Background(), types.SectionSkills, "Python, SQL", "job", true)
		if err != nil {
			t.Fatalf("AnalyzeSection() error = %v", err)
		}
		if got.Score != 3 {
			t.Errorf("Score = %d, want 3", got.Score)
		}
	})

	t.Run("zero score rejected", func(t *testing.T) {
		provider := &stubProvider{
			analyzeSection: func(_ context.Context, input ai.AnalyzeSectionInput) (types.GapAnalysis, *ai.TokenUsage, error) {
				return types.GapAnalysis{Score: 0}, nil, nil
			},
		}

		analyzer := NewGapAnalyzer(provider, testLogger())
		_, err := analyzer.AnalyzeSection(context.Background(), types.SectionSummary, "text", "job", false)
		if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeMalformedScore) {
			t.Errorf("AnalyzeSection() error = %v, want code %s", err, cvpilotErrors.ErrCodeMalformedScore)
		}
	})
}
