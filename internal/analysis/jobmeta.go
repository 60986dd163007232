package analysis

import (
	"context"
	"strings"

	"cvpilot/internal/ai"
	"cvpilot/internal/errors"
	"cvpilot/internal/types"
)

// MetaExtractor pulls the job title and employer out of a posting for
// labeling saved analyses. Extraction here is best effort: missing fields get
// placeholders instead of failing the caller.
type MetaExtractor struct {
	provider ai.Provider
	logger   *errors.Logger
}

// NewMetaExtractor creates a meta extractor backed by the given provider
func NewMetaExtractor(provider ai.Provider, logger *errors.Logger) *MetaExtractor {
	return &MetaExtractor{
		provider: provider,
		logger:   logger,
	}
}

// Extract returns the posting's title and employer, with placeholders for
// anything the posting does not state.
func (e *MetaExtractor) Extract(ctx context.Context, jobDescription string) (types.JobMeta, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return types.JobMeta{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Job description is empty", nil)
	}

	meta, _, err := e.provider.ExtractJobMeta(ctx, ai.ExtractJobMetaInput{
		JobDescription: jobDescription,
	})
	if err != nil {
		e.logger.Warn("Job meta extraction failed, using placeholders", "error", err.Error())
		return types.JobMeta{
			JobTitle: types.UntitledPosition,
			Employer: types.UnknownEmployer,
		}, nil
	}

	if strings.TrimSpace(meta.JobTitle) == "" {
		meta.JobTitle = types.UntitledPosition
	}
	if strings.TrimSpace(meta.Employer) == "" {
		meta.Employer = types.UnknownEmployer
	}

	return meta, nil
}
