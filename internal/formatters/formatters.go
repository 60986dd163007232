package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"cvpilot/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "JobAnalysis", &JobAnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "JobAnalysis", &JobAnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "MatchAnalysis", &MatchAnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "MatchAnalysis", &MatchAnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "OptimizedCV", &OptimizedCVTextFormatter{})
	registry.RegisterFormatter("markdown", "OptimizedCV", &OptimizedCVMarkdownFormatter{})
	registry.RegisterFormatter("text", "CoverLetter", &CoverLetterTextFormatter{})
	registry.RegisterFormatter("markdown", "CoverLetter", &CoverLetterMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.JobAnalysis:
		return "JobAnalysis"
	case types.MatchAnalysis:
		return "MatchAnalysis"
	case types.OptimizedCV:
		return "OptimizedCV"
	case types.CoverLetter:
		return "CoverLetter"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func writeRequirements(output *strings.Builder, items []types.JobRequirement) {
	for _, item := range items {
		if item.Type == types.RequirementExplicit && item.Source != "" {
			output.WriteString(fmt.Sprintf("- %s (stated: %q)\n", item.Text, item.Source))
		} else {
			output.WriteString(fmt.Sprintf("- %s (%s)\n", item.Text, item.Type))
		}
	}
}

// JobAnalysisTextFormatter handles text formatting for job analysis results
type JobAnalysisTextFormatter struct{}

func (jtf *JobAnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobAnalysis)
	if !ok {
		return "", fmt.Errorf("expected JobAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== JOB ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Title: %s\n\n", result.Title))

	if len(result.KeyRequirements) > 0 {
		output.WriteString("=== KEY REQUIREMENTS ===\n")
		writeRequirements(&output, result.KeyRequirements)
		output.WriteString("\n")
	}

	if len(result.SuggestedSkills) > 0 {
		output.WriteString("=== SUGGESTED SKILLS ===\n")
		writeRequirements(&output, result.SuggestedSkills)
		output.WriteString("\n")
	}

	output.WriteString("=== CULTURAL FIT ===\n")
	if result.CulturalFit.Explicit != "" {
		output.WriteString("Stated:\n")
		output.WriteString(result.CulturalFit.Explicit)
		output.WriteString("\n\n")
	}
	if result.CulturalFit.Inferred != "" {
		output.WriteString("Inferred:\n")
		output.WriteString(result.CulturalFit.Inferred)
		output.WriteString("\n\n")
	}

	if len(result.RecommendedHighlights) > 0 {
		output.WriteString("=== RECOMMENDED HIGHLIGHTS ===\n")
		writeRequirements(&output, result.RecommendedHighlights)
	}

	return output.String(), nil
}

func (jtf *JobAnalysisTextFormatter) SupportedType() string {
	return "JobAnalysis"
}

// JobAnalysisMarkdownFormatter handles markdown formatting for job analysis results
type JobAnalysisMarkdownFormatter struct{}

func (jmf *JobAnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobAnalysis)
	if !ok {
		return "", fmt.Errorf("expected JobAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Job Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Title:** %s\n\n", result.Title))

	if len(result.KeyRequirements) > 0 {
		output.WriteString("## Key Requirements\n\n")
		writeRequirements(&output, result.KeyRequirements)
		output.WriteString("\n")
	}

	if len(result.SuggestedSkills) > 0 {
		output.WriteString("## Suggested Skills\n\n")
		writeRequirements(&output, result.SuggestedSkills)
		output.WriteString("\n")
	}

	output.WriteString("## Cultural Fit\n\n")
	if result.CulturalFit.Explicit != "" {
		output.WriteString("**Stated:** ")
		output.WriteString(result.CulturalFit.Explicit)
		output.WriteString("\n\n")
	}
	if result.CulturalFit.Inferred != "" {
		output.WriteString("**Inferred:** ")
		output.WriteString(result.CulturalFit.Inferred)
		output.WriteString("\n\n")
	}

	if len(result.RecommendedHighlights) > 0 {
		output.WriteString("## Recommended Highlights\n\n")
		writeRequirements(&output, result.RecommendedHighlights)
	}

	return output.String(), nil
}

func (jmf *JobAnalysisMarkdownFormatter) SupportedType() string {
	return "JobAnalysis"
}

func writeRubric(output *strings.Builder, name string, rubric types.GapAnalysis) {
	output.WriteString(fmt.Sprintf("%s: %d/5\n", name, rubric.Score))
	for _, strength := range rubric.Strengths {
		output.WriteString(fmt.Sprintf("  + %s\n", strength))
	}
	for _, gap := range rubric.Gaps {
		output.WriteString(fmt.Sprintf("  - %s\n", gap))
	}
	for _, question := range rubric.Questions {
		output.WriteString(fmt.Sprintf("  ? %s\n", question))
	}
}

// MatchAnalysisTextFormatter handles text formatting for CV match results
type MatchAnalysisTextFormatter struct{}

func (mtf *MatchAnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.MatchAnalysis)
	if !ok {
		return "", fmt.Errorf("expected MatchAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== MATCH ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Overall Fit: %d/5\n", result.OverallFit.Score))
	output.WriteString(result.OverallFit.Explanation)
	output.WriteString("\n\n")

	output.WriteString("=== SENIORITY FIT ===\n")
	output.WriteString(fmt.Sprintf("Score: %d/5 (%s)\n", result.SeniorityFit.Score, result.SeniorityFit.Level))
	output.WriteString(result.SeniorityFit.Explanation)
	output.WriteString("\n")
	if len(result.SeniorityFit.Concerns) > 0 {
		output.WriteString("Concerns:\n")
		for _, concern := range result.SeniorityFit.Concerns {
			output.WriteString(fmt.Sprintf("- %s\n", concern))
		}
	}
	output.WriteString("\n")

	output.WriteString("=== SECTION SCORES ===\n")
	writeRubric(&output, "Summary", result.GapAnalysis.Summary)
	writeRubric(&output, "Skills", result.GapAnalysis.Skills)
	writeRubric(&output, "Experience", result.GapAnalysis.Experience)
	writeRubric(&output, "Education", result.GapAnalysis.Education)
	output.WriteString("\n")

	if len(result.SuggestedFocus) > 0 {
		output.WriteString("=== SUGGESTED FOCUS ===\n")
		for i, focus := range result.SuggestedFocus {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, focus))
		}
	}

	return output.String(), nil
}

func (mtf *MatchAnalysisTextFormatter) SupportedType() string {
	return "MatchAnalysis"
}

// MatchAnalysisMarkdownFormatter handles markdown formatting for CV match results
type MatchAnalysisMarkdownFormatter struct{}

func (mmf *MatchAnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.MatchAnalysis)
	if !ok {
		return "", fmt.Errorf("expected MatchAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Match Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Overall Fit:** %d/5\n\n", result.OverallFit.Score))
	output.WriteString(result.OverallFit.Explanation)
	output.WriteString("\n\n")

	output.WriteString("## Seniority Fit\n\n")
	output.WriteString(fmt.Sprintf("**Score:** %d/5 (%s)\n\n", result.SeniorityFit.Score, result.SeniorityFit.Level))
	output.WriteString(result.SeniorityFit.Explanation)
	output.WriteString("\n\n")
	if len(result.SeniorityFit.Concerns) > 0 {
		output.WriteString("### Concerns\n")
		for _, concern := range result.SeniorityFit.Concerns {
			output.WriteString(fmt.Sprintf("- %s\n", concern))
		}
		output.WriteString("\n")
	}

	output.WriteString("## Section Scores\n\n")
	rubrics := []struct {
		name   string
		rubric types.GapAnalysis
	}{
		{"Summary", result.GapAnalysis.Summary},
		{"Skills", result.GapAnalysis.Skills},
		{"Experience", result.GapAnalysis.Experience},
		{"Education", result.GapAnalysis.Education},
	}
	for _, r := range rubrics {
		output.WriteString(fmt.Sprintf("### %s: %d/5\n\n", r.name, r.rubric.Score))
		if len(r.rubric.Strengths) > 0 {
			output.WriteString("**Strengths:**\n")
			for _, strength := range r.rubric.Strengths {
				output.WriteString(fmt.Sprintf("- %s\n", strength))
			}
			output.WriteString("\n")
		}
		if len(r.rubric.Gaps) > 0 {
			output.WriteString("**Gaps:**\n")
			for _, gap := range r.rubric.Gaps {
				output.WriteString(fmt.Sprintf("- %s\n", gap))
			}
			output.WriteString("\n")
		}
		if len(r.rubric.Questions) > 0 {
			output.WriteString("**Questions:**\n")
			for _, question := range r.rubric.Questions {
				output.WriteString(fmt.Sprintf("- %s\n", question))
			}
			output.WriteString("\n")
		}
	}

	if len(result.SuggestedFocus) > 0 {
		output.WriteString("## Suggested Focus\n\n")
		for i, focus := range result.SuggestedFocus {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, focus))
		}
	}

	return output.String(), nil
}

func (mmf *MatchAnalysisMarkdownFormatter) SupportedType() string {
	return "MatchAnalysis"
}

func writeCVDocument(output *strings.Builder, cv types.CVDocument, heading func(string) string) {
	writeSection := func(name, content string) {
		if content == "" {
			return
		}
		output.WriteString(heading(name))
		output.WriteString(content)
		output.WriteString("\n\n")
	}

	output.WriteString(cv.Name)
	output.WriteString("\n")
	if cv.Contact != "" {
		output.WriteString(cv.Contact)
		output.WriteString("\n")
	}
	output.WriteString("\n")

	writeSection("Summary", cv.Summary)
	writeSection("Skills", cv.Skills)

	if len(cv.Experience) > 0 {
		output.WriteString(heading("Experience"))
		for _, position := range cv.Experience {
			output.WriteString(fmt.Sprintf("%s, %s (%s to %s)\n", position.Title, position.Company, position.StartDate, position.EndDate))
			if position.Location != "" {
				output.WriteString(position.Location)
				output.WriteString("\n")
			}
			output.WriteString(position.Description)
			output.WriteString("\n\n")
		}
	}

	writeSection("Education", cv.Education)
	writeSection("Languages", cv.Languages)
	writeSection("Achievements", cv.Achievements)
	writeSection("Professional Development", cv.Development)
	writeSection("Memberships", cv.Memberships)
}

// OptimizedCVTextFormatter handles text formatting for whole-CV rewrites
type OptimizedCVTextFormatter struct{}

func (otf *OptimizedCVTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.OptimizedCV)
	if !ok {
		return "", fmt.Errorf("expected OptimizedCV, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== OPTIMIZED CV ===\n\n")
	writeCVDocument(&output, result.Content, func(name string) string {
		return fmt.Sprintf("--- %s ---\n", strings.ToUpper(name))
	})

	if len(result.Suggestions) > 0 {
		output.WriteString("=== SUGGESTIONS ===\n")
		for i, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, suggestion))
		}
		output.WriteString("\n")
	}

	if len(result.Highlights) > 0 {
		output.WriteString("=== STRONGEST MATCHES ===\n")
		for _, highlight := range result.Highlights {
			output.WriteString(fmt.Sprintf("- %s\n", highlight))
		}
	}

	return output.String(), nil
}

func (otf *OptimizedCVTextFormatter) SupportedType() string {
	return "OptimizedCV"
}

// OptimizedCVMarkdownFormatter handles markdown formatting for whole-CV rewrites
type OptimizedCVMarkdownFormatter struct{}

func (omf *OptimizedCVMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.OptimizedCV)
	if !ok {
		return "", fmt.Errorf("expected OptimizedCV, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Optimized CV\n\n")
	writeCVDocument(&output, result.Content, func(name string) string {
		return fmt.Sprintf("## %s\n\n", name)
	})

	if len(result.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for i, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, suggestion))
		}
		output.WriteString("\n")
	}

	if len(result.Highlights) > 0 {
		output.WriteString("## Strongest Matches\n\n")
		for _, highlight := range result.Highlights {
			output.WriteString(fmt.Sprintf("- %s\n", highlight))
		}
	}

	return output.String(), nil
}

func (omf *OptimizedCVMarkdownFormatter) SupportedType() string {
	return "OptimizedCV"
}

// CoverLetterTextFormatter handles text formatting for generated cover letters
type CoverLetterTextFormatter struct{}

func (ctf *CoverLetterTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.CoverLetter)
	if !ok {
		return "", fmt.Errorf("expected CoverLetter, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== COVER LETTER ===\n\n")
	output.WriteString(result.Content)
	output.WriteString("\n\n")

	if len(result.Highlights) > 0 {
		output.WriteString("=== KEY POINTS ===\n")
		for _, highlight := range result.Highlights {
			output.WriteString(fmt.Sprintf("- %s\n", highlight))
		}
		output.WriteString("\n")
	}

	if len(result.KeywordsUsed) > 0 {
		output.WriteString("=== KEYWORDS USED ===\n")
		output.WriteString(strings.Join(result.KeywordsUsed, ", "))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (ctf *CoverLetterTextFormatter) SupportedType() string {
	return "CoverLetter"
}

// CoverLetterMarkdownFormatter handles markdown formatting for generated cover letters
type CoverLetterMarkdownFormatter struct{}

func (cmf *CoverLetterMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.CoverLetter)
	if !ok {
		return "", fmt.Errorf("expected CoverLetter, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Cover Letter\n\n")
	output.WriteString(result.Content)
	output.WriteString("\n\n")

	if len(result.Highlights) > 0 {
		output.WriteString("## Key Points\n\n")
		for _, highlight := range result.Highlights {
			output.WriteString(fmt.Sprintf("- %s\n", highlight))
		}
		output.WriteString("\n")
	}

	if len(result.KeywordsUsed) > 0 {
		output.WriteString("## Keywords Used\n\n")
		output.WriteString(strings.Join(result.KeywordsUsed, ", "))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (cmf *CoverLetterMarkdownFormatter) SupportedType() string {
	return "CoverLetter"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
