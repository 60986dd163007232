package optimize

import (
	"context"
	"fmt"
	"strings"

	"cvpilot/internal/ai"
	"cvpilot/internal/errors"
	"cvpilot/internal/types"
)

// SectionOptimizer rewrites one CV section at a time, driven by the
// refinement conversation for that section. The rewrite never fabricates:
// claims the model could not trace are surfaced through VerificationNeeded,
// and the shape of the section (text versus position list) is preserved or
// the result is rejected.
type SectionOptimizer struct {
	provider ai.Provider
	logger   *errors.Logger
}

// NewSectionOptimizer creates an optimizer backed by the given provider
func NewSectionOptimizer(provider ai.Provider, logger *errors.Logger) *SectionOptimizer {
	return &SectionOptimizer{
		provider: provider,
		logger:   logger,
	}
}

// Optimize rewrites the section using the full conversation history. The
// returned explanation carries the verification items as bullets so the
// justification is self-contained when shown on its own.
func (o *SectionOptimizer) Optimize(ctx context.Context, section types.SectionKey, content types.SectionContent, jobDescription string, history []types.ChatMessage) (types.OptimizedSection, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return types.OptimizedSection{}, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"No job description to optimize against", nil)
	}

	result, _, err := o.provider.OptimizeSection(ctx, ai.OptimizeSectionInput{
		Section:        section,
		Content:        content,
		JobDescription: jobDescription,
		History:        history,
		Language:       targetLanguage(jobDescription),
	})
	if err != nil {
		return types.OptimizedSection{}, err
	}

	if err := checkSectionShape(section, content, result.Content); err != nil {
		return types.OptimizedSection{}, err
	}

	guardSection(&result, content, history)
	result.Explanation = appendVerificationBullets(result.Explanation, result.VerificationNeeded)

	o.logger.Debug("Section optimization completed",
		"section", string(section),
		"history_turns", len(history),
		"verification_needed", len(result.VerificationNeeded))

	return result, nil
}

// CVOptimizer rewrites the whole document in one shot, without the
// conversational loop. Used for the quick path where the user wants a full
// draft instead of section-by-section control.
type CVOptimizer struct {
	provider ai.Provider
	logger   *errors.Logger
}

// NewCVOptimizer creates a whole-document optimizer backed by the given provider
func NewCVOptimizer(provider ai.Provider, logger *errors.Logger) *CVOptimizer {
	return &CVOptimizer{
		provider: provider,
		logger:   logger,
	}
}

// Optimize rewrites the full CV and returns it with improvement suggestions
// and the strongest matches to the job.
func (o *CVOptimizer) Optimize(ctx context.Context, cv types.CVDocument, jobDescription string) (types.OptimizedCV, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return types.OptimizedCV{}, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"No job description to optimize against", nil)
	}

	result, _, err := o.provider.OptimizeCV(ctx, ai.OptimizeCVInput{
		CV:             cv,
		JobDescription: jobDescription,
		Language:       targetLanguage(jobDescription),
	})
	if err != nil {
		return types.OptimizedCV{}, err
	}

	if err := checkDocumentShape(cv, result.Content); err != nil {
		return types.OptimizedCV{}, err
	}

	guardDocument(&result, cv)

	o.logger.Debug("Document optimization completed",
		"suggestions", len(result.Suggestions),
		"highlights", len(result.Highlights))

	return result, nil
}

// checkSectionShape rejects rewrites that change the structural kind of a
// section or drop positions from an experience entry.
func checkSectionShape(section types.SectionKey, original, rewritten types.SectionContent) error {
	if original.IsExperience() != rewritten.IsExperience() {
		return errors.NewOptimizationError(errors.ErrCodeInvalidSection,
			fmt.Sprintf("Rewrite of section %q changed its structural kind", section), nil)
	}

	if original.IsExperience() {
		origLen := len(original.Positions)
		newLen := len(rewritten.Positions)
		if origLen != newLen {
			return errors.NewOptimizationError(errors.ErrCodeInvalidSection,
				fmt.Sprintf("Rewrite of section %q returned %d positions, want %d", section, newLen, origLen), nil)
		}
		return nil
	}

	if strings.TrimSpace(rewritten.Text) == "" {
		return errors.NewAIError(errors.ErrCodeNoContent,
			fmt.Sprintf("Rewrite of section %q is empty", section), nil)
	}
	return nil
}

// checkDocumentShape rejects whole-document rewrites that lose positions or
// the candidate identity.
func checkDocumentShape(original, rewritten types.CVDocument) error {
	if strings.TrimSpace(rewritten.Name) == "" {
		return errors.NewAIError(errors.ErrCodeNoContent,
			"Document rewrite lost the candidate name", nil)
	}
	if len(rewritten.Experience) != len(original.Experience) {
		return errors.NewOptimizationError(errors.ErrCodeInvalidSection,
			fmt.Sprintf("Document rewrite returned %d positions, want %d", len(rewritten.Experience), len(original.Experience)), nil)
	}
	return nil
}

// appendVerificationBullets folds verification items into the explanation
func appendVerificationBullets(explanation string, items []string) string {
	if len(items) == 0 {
		return explanation
	}

	var sb strings.Builder
	sb.WriteString(explanation)
	sb.WriteString("\n\nNeeds verification:")
	for _, item := range items {
		sb.WriteString("\n- ")
		sb.WriteString(item)
	}
	return sb.String()
}
