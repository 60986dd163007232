package optimize

import (
	"context"
	"strings"

	"cvpilot/internal/ai"
	"cvpilot/internal/errors"
	"cvpilot/internal/types"
)

// LetterWriter drafts a cover letter for one candidate-job pairing. The
// letter draws only on facts present in the CV; the highlights and keywords
// it reports let the user check what the letter leans on before sending it.
type LetterWriter struct {
	provider ai.Provider
	logger   *errors.Logger
}

// NewLetterWriter creates a cover letter writer backed by the given provider
func NewLetterWriter(provider ai.Provider, logger *errors.Logger) *LetterWriter {
	return &LetterWriter{
		provider: provider,
		logger:   logger,
	}
}

// Write drafts the letter. The letter is written in the language of the job
// description, like every other rewrite for the pairing.
func (w *LetterWriter) Write(ctx context.Context, cv types.CVDocument, jobDescription string) (types.CoverLetter, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return types.CoverLetter{}, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"No job description to write against", nil)
	}
	if strings.TrimSpace(documentText(cv)) == "" {
		return types.CoverLetter{}, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"CV has no content to draw the letter from", nil)
	}

	result, _, err := w.provider.GenerateCoverLetter(ctx, ai.GenerateCoverLetterInput{
		CV:             cv,
		JobDescription: jobDescription,
		Language:       targetLanguage(jobDescription),
	})
	if err != nil {
		return types.CoverLetter{}, err
	}

	if strings.TrimSpace(result.Content) == "" {
		return types.CoverLetter{}, errors.NewAIError(errors.ErrCodeNoContent,
			"Cover letter generation returned an empty letter", nil)
	}

	w.logger.Debug("Cover letter generation completed",
		"letter_chars", len(result.Content),
		"highlights", len(result.Highlights),
		"keywords_used", len(result.KeywordsUsed))

	return result, nil
}
