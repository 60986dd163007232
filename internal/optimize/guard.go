package optimize

import (
	"fmt"
	"regexp"
	"strings"

	"cvpilot/internal/types"
)

// The guard is a cheap lexical backstop behind the prompt-level fabrication
// rules: any number appearing in a rewrite must already appear in the source
// content or in something the candidate said. Numbers are where invented
// claims do the most damage (years of experience, team sizes, percentages),
// and they are the one class of claim that can be traced mechanically.
var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*%?`)

// untracedNumbers returns the numeric tokens in draft that appear in none of
// the sources, deduplicated in order of first appearance.
func untracedNumbers(draft string, sources ...string) []string {
	known := make(map[string]bool)
	for _, source := range sources {
		for _, tok := range numberPattern.FindAllString(source, -1) {
			known[normalizeNumber(tok)] = true
		}
	}

	var untraced []string
	seen := make(map[string]bool)
	for _, tok := range numberPattern.FindAllString(draft, -1) {
		key := normalizeNumber(tok)
		if known[key] || seen[key] {
			continue
		}
		seen[key] = true
		untraced = append(untraced, tok)
	}
	return untraced
}

// normalizeNumber strips formatting so "1,200" and "1.200" trace to the same
// source token.
func normalizeNumber(tok string) string {
	tok = strings.TrimSuffix(tok, "%")
	tok = strings.ReplaceAll(tok, ",", "")
	tok = strings.ReplaceAll(tok, ".", "")
	return tok
}

// guardSection appends a verification entry for every number in the rewrite
// that cannot be traced to the source content or the conversation. Flagging
// instead of failing keeps the human in the loop: the draft still reaches the
// user, but never silently.
func guardSection(result *types.OptimizedSection, source types.SectionContent, history []types.ChatMessage) {
	sources := []string{sectionText(source)}
	for _, msg := range history {
		if msg.Role == types.RoleUser {
			sources = append(sources, msg.Content)
		}
	}

	for _, tok := range untracedNumbers(sectionText(result.Content), sources...) {
		result.VerificationNeeded = append(result.VerificationNeeded,
			fmt.Sprintf("The figure %q does not appear in the original content; confirm it before using this draft", tok))
	}
}

// guardDocument does the same trace for a whole-document rewrite.
func guardDocument(result *types.OptimizedCV, source types.CVDocument) {
	for _, tok := range untracedNumbers(documentText(result.Content), documentText(source)) {
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("Verify the figure %q: it does not appear in the original CV", tok))
	}
}

// sectionText flattens section content for lexical comparison
func sectionText(content types.SectionContent) string {
	if !content.IsExperience() {
		return content.Text
	}

	var sb strings.Builder
	for _, pos := range content.Positions {
		sb.WriteString(positionText(pos))
		sb.WriteString("\n")
	}
	return sb.String()
}

// documentText flattens a CV for lexical comparison
func documentText(cv types.CVDocument) string {
	var sb strings.Builder
	for _, part := range []string{
		cv.Name, cv.Contact, cv.Summary, cv.Skills,
		cv.Education, cv.Languages, cv.Achievements, cv.Development, cv.Memberships,
	} {
		sb.WriteString(part)
		sb.WriteString("\n")
	}
	for _, pos := range cv.Experience {
		sb.WriteString(positionText(pos))
		sb.WriteString("\n")
	}
	return sb.String()
}

func positionText(pos types.Position) string {
	return strings.Join([]string{
		pos.Company, pos.Title, pos.StartDate, pos.EndDate, pos.Location, pos.Description,
	}, "\n")
}
