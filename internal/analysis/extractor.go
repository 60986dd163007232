package analysis

import (
	"context"
	"strconv"
	"strings"

	"cvpilot/internal/ai"
	"cvpilot/internal/errors"
	"cvpilot/internal/types"

	"golang.org/x/sync/errgroup"
)

// Extractor turns a job posting into a structured requirement analysis. It
// runs two independent generation passes, one reading the posting verbatim and
// one inferring unstated requirements, and merges their results. Both passes
// must succeed; a partial result would silently lose one whole requirement
// category, so a single failed pass fails the extraction.
type Extractor struct {
	provider ai.Provider
	logger   *errors.Logger
}

// NewExtractor creates an extractor backed by the given provider
func NewExtractor(provider ai.Provider, logger *errors.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		logger:   logger,
	}
}

// Extract runs both passes concurrently and merges them. The explicit pass
// owns the title and the stated culture; the inferred pass owns the inferred
// culture. Requirement lists concatenate with explicit items first.
func (e *Extractor) Extract(ctx context.Context, jobDescription string) (types.JobAnalysis, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return types.JobAnalysis{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Job description is empty", nil)
	}

	language := DetectLanguage(jobDescription)

	var explicit, inferred types.JobAnalysis
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result, _, err := e.provider.ExtractJob(gctx, ai.ExtractJobInput{
			JobDescription: jobDescription,
			Pass:           types.RequirementExplicit,
			Language:       language,
		})
		if err != nil {
			return errors.NewAnalysisError(errors.ErrCodeIncompleteAnalysis,
				"Explicit extraction pass failed", err)
		}
		explicit = result
		return nil
	})

	g.Go(func() error {
		result, _, err := e.provider.ExtractJob(gctx, ai.ExtractJobInput{
			JobDescription: jobDescription,
			Pass:           types.RequirementInferred,
			Language:       language,
		})
		if err != nil {
			return errors.NewAnalysisError(errors.ErrCodeIncompleteAnalysis,
				"Inferred extraction pass failed", err)
		}
		inferred = result
		return nil
	})

	if err := g.Wait(); err != nil {
		return types.JobAnalysis{}, err
	}

	merged, err := mergeJobAnalyses(explicit, inferred)
	if err != nil {
		return types.JobAnalysis{}, err
	}

	e.logger.Debug("Job extraction completed",
		"title", merged.Title,
		"key_requirements", len(merged.KeyRequirements),
		"suggested_skills", len(merged.SuggestedSkills),
		"recommended_highlights", len(merged.RecommendedHighlights),
		"language", language)

	return merged, nil
}

// mergeJobAnalyses combines the two pass results into one immutable analysis
func mergeJobAnalyses(explicit, inferred types.JobAnalysis) (types.JobAnalysis, error) {
	title := strings.TrimSpace(explicit.Title)
	if title == "" {
		title = types.TitleNotSpecified
	}

	merged := types.JobAnalysis{
		Title: title,
		CulturalFit: types.CulturalFit{
			Explicit: explicit.CulturalFit.Explicit,
			Inferred: inferred.CulturalFit.Inferred,
		},
	}

	lists := []struct {
		target             *[]types.JobRequirement
		explicit, inferred []types.JobRequirement
	}{
		{&merged.KeyRequirements, explicit.KeyRequirements, inferred.KeyRequirements},
		{&merged.SuggestedSkills, explicit.SuggestedSkills, inferred.SuggestedSkills},
		{&merged.RecommendedHighlights, explicit.RecommendedHighlights, inferred.RecommendedHighlights},
	}
	for _, list := range lists {
		explicitItems, err := normalizeRequirements(list.explicit, types.RequirementExplicit)
		if err != nil {
			return types.JobAnalysis{}, err
		}
		inferredItems, err := normalizeRequirements(list.inferred, types.RequirementInferred)
		if err != nil {
			return types.JobAnalysis{}, err
		}
		*list.target = append(explicitItems, inferredItems...)
	}

	return merged, nil
}

// normalizeRequirements stamps every item with the pass it came from and
// strips sources from inferred items. A source on an inferred requirement
// would fake provenance the posting never gave; an explicit requirement
// without a source quote cannot be traced back to the posting and fails the
// extraction rather than being passed along unverifiable.
func normalizeRequirements(reqs []types.JobRequirement, pass types.RequirementType) ([]types.JobRequirement, error) {
	out := make([]types.JobRequirement, 0, len(reqs))
	for _, req := range reqs {
		if strings.TrimSpace(req.Text) == "" {
			continue
		}
		req.Type = pass
		switch pass {
		case types.RequirementInferred:
			req.Source = ""
		case types.RequirementExplicit:
			if strings.TrimSpace(req.Source) == "" {
				return nil, errors.NewAnalysisError(errors.ErrCodeIncompleteAnalysis,
					"Explicit requirement "+strconv.Quote(req.Text)+" has no source quote", nil)
			}
		}
		out = append(out, req)
	}
	return out, nil
}
