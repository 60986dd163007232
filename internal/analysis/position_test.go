package analysis

import (
	"context"
	"testing"

	"cvpilot/internal/ai"
	cvpilotErrors "cvpilot/internal/errors"
	"cvpilot/internal/types"
)

func TestAnalyzePositionIsolation(t *testing.T) {
	// The provider input carries the one position and nothing else; this
	// pins the boundary so sibling content can never widen it.
	var seen ai.AnalyzePositionInput
	provider := &stubProvider{
		analyzePosition: func(_ context.Context, input ai.AnalyzePositionInput) (types.PositionAnalysis, *ai.TokenUsage, error) {
			seen = input
			return types.PositionAnalysis{
				GapAnalysis: types.GapAnalysis{Score: 4},
				Relevance:   "direct platform experience",
			}, nil, nil
		},
	}

	position := types.Position{
		Company:     "Acme",
		Title:       "Engineer",
		StartDate:   "2020-01",
		EndDate:     "2023-06",
		Description: "Built the billing pipeline.",
	}

	analyzer := NewPositionAnalyzer(provider, testLogger())
	got, err := analyzer.Analyze(context.Background(), position, "job description", false)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if seen.Position != position {
		t.Errorf("provider saw position %+v, want %+v", seen.Position, position)
	}
	if got.Relevance == "" {
		t.Error("Relevance is empty")
	}
}

func TestAnalyzePositionScoreValidation(t *testing.T) {
	provider := &stubProvider{
		analyzePosition: func(_ context.Context, input ai.AnalyzePositionInput) (types.PositionAnalysis, *ai.TokenUsage, error) {
			return types.PositionAnalysis{GapAnalysis: types.GapAnalysis{Score: 6}}, nil, nil
		},
	}

	analyzer := NewPositionAnalyzer(provider, testLogger())
	_, err := analyzer.Analyze(context.Background(), types.Position{Company: "Acme"}, "job", false)
	if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeMalformedScore) {
		t.Errorf("Analyze() error = %v, want code %s", err, cvpilotErrors.ErrCodeMalformedScore)
	}
}

func TestRecommendSkip(t *testing.T) {
	tests := []struct {
		score int
		want  bool
	}{
		{1, true},
		{2, false},
		{5, false},
	}
	for _, tt := range tests {
		got := RecommendSkip(types.PositionAnalysis{GapAnalysis: types.GapAnalysis{Score: tt.score}})
		if got != tt.want {
			t.Errorf("RecommendSkip(score=%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
