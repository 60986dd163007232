package optimize

import "cvpilot/internal/analysis"

// targetLanguage fixes the rewrite language for one candidate-job pairing.
// It is derived from the job description alone, so every section of the same
// pairing is rewritten in the same language regardless of what language its
// current content happens to be in.
func targetLanguage(jobDescription string) string {
	return analysis.DetectLanguage(jobDescription)
}
