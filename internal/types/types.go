package types

// CVDocument is the candidate's CV. All sections are free text except
// Experience, which is an ordered list of positions (reverse-chronological by
// convention, not enforced).
type CVDocument struct {
	Name         string     `json:"name" validate:"required"`
	Contact      string     `json:"contact"`
	Summary      string     `json:"summary"`
	Skills       string     `json:"skills"`
	Experience   []Position `json:"experience" validate:"dive"`
	Education    string     `json:"education"`
	Languages    string     `json:"languages"`
	Achievements string     `json:"achievements"`
	Development  string     `json:"development"`
	Memberships  string     `json:"memberships"`
}

// Position is one experience entry. Identity is the positional index within
// CVDocument.Experience; there is no stable id, so any index-addressed
// operation must be re-resolved after the slice is reordered or filtered.
type Position struct {
	Company     string `json:"company" validate:"required"`
	Title       string `json:"title" validate:"required"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description" validate:"required"`
}

// RequirementType distinguishes requirements quoted from the posting text from
// those inferred from industry context.
type RequirementType string

const (
	RequirementExplicit RequirementType = "explicit"
	RequirementInferred RequirementType = "inferred"
)

// JobRequirement is a single requirement, skill or highlight extracted from a
// job posting. Source is mandatory for explicit items (it quotes or references
// the originating text) and must be empty for inferred items.
type JobRequirement struct {
	Text   string          `json:"text"`
	Type   RequirementType `json:"type"`
	Source string          `json:"source,omitempty"`
}

// CulturalFit keeps explicit and inferred culture observations separate so the
// provenance of each stays visible.
type CulturalFit struct {
	Explicit string `json:"explicit"`
	Inferred string `json:"inferred"`
}

// TitleNotSpecified is the sentinel the explicit extraction pass must use when
// the posting does not state a job title.
const TitleNotSpecified = "Position Not Specified"

// JobAnalysis is the merged result of the explicit and inferred extraction
// passes over one job posting. It is never mutated after creation; re-running
// the extractor yields a new, independent value.
type JobAnalysis struct {
	Title                 string           `json:"title"`
	KeyRequirements       []JobRequirement `json:"keyRequirements"`
	SuggestedSkills       []JobRequirement `json:"suggestedSkills"`
	CulturalFit           CulturalFit      `json:"culturalFit"`
	RecommendedHighlights []JobRequirement `json:"recommendedHighlights"`
}

// GapAnalysis scores one rubric of the CV against the job description.
// Score is an integer in 1..5 for every rubric.
type GapAnalysis struct {
	Gaps      []string `json:"gaps"`
	Strengths []string `json:"strengths"`
	Score     int      `json:"score"`
	Questions []string `json:"questions"`
}

// SeniorityLevel classifies the direction of a seniority mismatch.
type SeniorityLevel string

const (
	SeniorityUnderQualified SeniorityLevel = "under-qualified"
	SeniorityWellMatched    SeniorityLevel = "well-matched"
	SeniorityOverQualified  SeniorityLevel = "over-qualified"
)

// SeniorityFit scores distance from the ideal level, not quality: 5 is a
// perfect match and both directions of mismatch degrade the score equally.
type SeniorityFit struct {
	Score       int            `json:"score"`
	Level       SeniorityLevel `json:"level"`
	Explanation string         `json:"explanation"`
	Concerns    []string       `json:"concerns"`
}

// OverallFit is the top-line score with its justification.
type OverallFit struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// RubricSet holds the four per-section gap analyses.
type RubricSet struct {
	Summary    GapAnalysis `json:"summary"`
	Skills     GapAnalysis `json:"skills"`
	Experience GapAnalysis `json:"experience"`
	Education  GapAnalysis `json:"education"`
}

// MatchAnalysis is the full CV-versus-job scoring result.
type MatchAnalysis struct {
	OverallFit     OverallFit   `json:"overallFit"`
	SeniorityFit   SeniorityFit `json:"seniorityFit"`
	GapAnalysis    RubricSet    `json:"gapAnalysis"`
	SuggestedFocus []string     `json:"suggestedFocus"`
}

// PositionAnalysis scores exactly one experience entry against the job.
// OriginalAnalysis retains the pre-optimization scoring so before/after can
// always be shown side by side.
type PositionAnalysis struct {
	GapAnalysis
	Relevance        string            `json:"relevance"`
	OriginalAnalysis *PositionAnalysis `json:"originalAnalysis,omitempty"`
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn in a section's refinement conversation. The
// transcript is append-only and is cleared only when the section restarts.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// OptimizedSection is a section rewrite plus its justification.
// VerificationNeeded lists facts the rewrite could not establish from the
// source content or the chat; these must reach the user before the section is
// accepted in good faith.
type OptimizedSection struct {
	Content            SectionContent `json:"optimizedContent"`
	Explanation        string         `json:"explanation"`
	VerificationNeeded []string       `json:"verificationNeeded"`
}

// OptimizedCV is the one-shot whole-document rewrite with improvement
// suggestions and the strongest CV-to-job matches.
type OptimizedCV struct {
	Content     CVDocument `json:"content"`
	Suggestions []string   `json:"suggestions"`
	Highlights  []string   `json:"highlights"`
}

// CoverLetter is a generated application letter for one candidate-job
// pairing. Highlights names the points the letter emphasizes; KeywordsUsed
// lists the job description terms it worked in.
type CoverLetter struct {
	Content      string   `json:"content"`
	Highlights   []string `json:"highlights"`
	KeywordsUsed []string `json:"keywordsUsed"`
}

// JobMeta is the best-effort title/employer extraction from a posting.
type JobMeta struct {
	JobTitle string `json:"jobTitle"`
	Employer string `json:"employer"`
}

// Placeholders used when job meta extraction fails or comes back empty.
const (
	UntitledPosition = "Untitled Position"
	UnknownEmployer  = "Unknown Employer"
)
