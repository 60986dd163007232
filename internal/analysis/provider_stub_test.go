package analysis

import (
	"context"

	"cvpilot/internal/ai"
	"cvpilot/internal/errors"
	"cvpilot/internal/types"
)

// stubProvider lets each test script the provider methods it cares about.
type stubProvider struct {
	extractJob      func(ctx context.Context, input ai.ExtractJobInput) (types.JobAnalysis, *ai.TokenUsage, error)
	analyzeMatch    func(ctx context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error)
	analyzeSection  func(ctx context.Context, input ai.AnalyzeSectionInput) (types.GapAnalysis, *ai.TokenUsage, error)
	analyzePosition func(ctx context.Context, input ai.AnalyzePositionInput) (types.PositionAnalysis, *ai.TokenUsage, error)
	optimizeSection func(ctx context.Context, input ai.OptimizeSectionInput) (types.OptimizedSection, *ai.TokenUsage, error)
	optimizeCV      func(ctx context.Context, input ai.OptimizeCVInput) (types.OptimizedCV, *ai.TokenUsage, error)
	coverLetter     func(ctx context.Context, input ai.GenerateCoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error)
	extractJobMeta  func(ctx context.Context, input ai.ExtractJobMetaInput) (types.JobMeta, *ai.TokenUsage, error)
}

var _ ai.Provider = (*stubProvider)(nil)

func (s *stubProvider) ExtractJob(ctx context.Context, input ai.ExtractJobInput) (types.JobAnalysis, *ai.TokenUsage, error) {
	return s.extractJob(ctx, input)
}

func (s *stubProvider) AnalyzeMatch(ctx context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
	return s.analyzeMatch(ctx, input)
}

func (s *stubProvider) AnalyzeSection(ctx context.Context, input ai.AnalyzeSectionInput) (types.GapAnalysis, *ai.TokenUsage, error) {
	return s.analyzeSection(ctx, input)
}

func (s *stubProvider) AnalyzePosition(ctx context.Context, input ai.AnalyzePositionInput) (types.PositionAnalysis, *ai.TokenUsage, error) {
	return s.analyzePosition(ctx, input)
}

func (s *stubProvider) OptimizeSection(ctx context.Context, input ai.OptimizeSectionInput) (types.OptimizedSection, *ai.TokenUsage, error) {
	return s.optimizeSection(ctx, input)
}

func (s *stubProvider) OptimizeCV(ctx context.Context, input ai.OptimizeCVInput) (types.OptimizedCV, *ai.TokenUsage, error) {
	return s.optimizeCV(ctx, input)
}

func (s *stubProvider) GenerateCoverLetter(ctx context.Context, input ai.GenerateCoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error) {
	return s.coverLetter(ctx, input)
}

func (s *stubProvider) ExtractJobMeta(ctx context.Context, input ai.ExtractJobMetaInput) (types.JobMeta, *ai.TokenUsage, error) {
	return s.extractJobMeta(ctx, input)
}

func (s *stubProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (s *stubProvider) Close() error { return nil }

func testLogger() *errors.Logger {
	logger, _ := errors.New("error")
	return logger
}
