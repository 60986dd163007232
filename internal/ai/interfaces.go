package ai

import (
	"context"

	"cvpilot/internal/types"
)

// ExtractJobInput is one extraction pass over a job posting. Pass selects
// whether the provider reads requirements verbatim from the posting text or
// infers them from industry context.
type ExtractJobInput struct {
	JobDescription string
	Pass           types.RequirementType
	Language       string
}

// AnalyzeMatchInput scores a full CV against a job description.
// OptimizedPass restricts the evaluation to the given content only, with no
// reference to earlier versions.
type AnalyzeMatchInput struct {
	CV             types.CVDocument
	JobDescription string
	OptimizedPass  bool
	Language       string
}

// AnalyzeSectionInput re-scores a single non-experience section.
type AnalyzeSectionInput struct {
	Section        types.SectionKey
	Content        string
	JobDescription string
	OptimizedPass  bool
	Language       string
}

// AnalyzePositionInput scores one experience entry in isolation.
type AnalyzePositionInput struct {
	Position       types.Position
	JobDescription string
	OptimizedPass  bool
	Language       string
}

// OptimizeSectionInput rewrites one section. History carries the refinement
// conversation so far; the latest user turn is the instruction to apply.
type OptimizeSectionInput struct {
	Section        types.SectionKey
	Content        types.SectionContent
	JobDescription string
	History        []types.ChatMessage
	Language       string
}

// OptimizeCVInput rewrites the whole document in one shot.
type OptimizeCVInput struct {
	CV             types.CVDocument
	JobDescription string
	Language       string
}

// GenerateCoverLetterInput drafts an application letter for the CV and job
// description pairing.
type GenerateCoverLetterInput struct {
	CV             types.CVDocument
	JobDescription string
	Language       string
}

// ExtractJobMetaInput pulls the job title and employer out of a posting.
type ExtractJobMetaInput struct {
	JobDescription string
}

// Provider is the text-generation boundary. Every method returns token usage
// alongside the typed result; callers can ignore it if not needed.
type Provider interface {
	ExtractJob(ctx context.Context, input ExtractJobInput) (types.JobAnalysis, *TokenUsage, error)
	AnalyzeMatch(ctx context.Context, input AnalyzeMatchInput) (types.MatchAnalysis, *TokenUsage, error)
	AnalyzeSection(ctx context.Context, input AnalyzeSectionInput) (types.GapAnalysis, *TokenUsage, error)
	AnalyzePosition(ctx context.Context, input AnalyzePositionInput) (types.PositionAnalysis, *TokenUsage, error)
	OptimizeSection(ctx context.Context, input OptimizeSectionInput) (types.OptimizedSection, *TokenUsage, error)
	OptimizeCV(ctx context.Context, input OptimizeCVInput) (types.OptimizedCV, *TokenUsage, error)
	GenerateCoverLetter(ctx context.Context, input GenerateCoverLetterInput) (types.CoverLetter, *TokenUsage, error)
	ExtractJobMeta(ctx context.Context, input ExtractJobMetaInput) (types.JobMeta, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
