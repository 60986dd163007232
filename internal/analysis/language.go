package analysis

import "regexp"

// Language detection keeps generated text in the candidate's language. Only
// German and English are distinguished; anything that does not look German is
// treated as English.
var (
	umlautPattern     = regexp.MustCompile(`[äöüßÄÖÜ]`)
	germanWordPattern = regexp.MustCompile(`(?i)\b(und|oder|für|mit|bei|das|die|der)\b`)
)

// DetectLanguage returns "de" when the text contains German letters or common
// German function words, "en" otherwise.
func DetectLanguage(text string) string {
	if umlautPattern.MatchString(text) || germanWordPattern.MatchString(text) {
		return "de"
	}
	return "en"
}
