package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ExtractJob      string
	AnalyzeMatch    string
	AnalyzeSection  string
	AnalyzePosition string
	OptimizeSection string
	OptimizeCV      string
	CoverLetter     string
	ExtractJobMeta  string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ExtractJobExplicit string
	ExtractJobInferred string
	AnalyzeMatch       string
	AnalyzeSection     string
	AnalyzePosition    string
	OptimizeSection    string
	OptimizeCV         string
	CoverLetter        string
	ExtractJobMeta     string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ExtractJob: `You are an expert recruitment analyst. You decompose job postings into structured requirements with a strict commitment to provenance:

- Requirements read directly from the posting text are "explicit" and must cite the originating sentence or phrase
- Requirements derived from industry context are "inferred" and must never cite a source
- Never mix the two categories and never restate an explicit requirement as inferred`,

	AnalyzeMatch: `You are an expert CV reviewer and hiring consultant. You score candidates honestly and consistently:

- Scores are absolute judgments of fit against the job description, never relative to other candidates or earlier drafts
- Gaps name what is missing, strengths name what is present; neither may speculate about unstated facts
- Questions are things to ask the candidate that could close an apparent gap`,

	AnalyzeSection: `You are an expert CV reviewer. You evaluate exactly the section content you are given against the job description. You never reference, assume, or compare against any other version of the section.`,

	AnalyzePosition: `You are an expert CV reviewer. You evaluate exactly one work position against the job description. Only the stated duties of this position exist for you; you know nothing else about the candidate.`,

	OptimizeSection: `You are an expert CV writer with a strict commitment to honesty:

- NEVER invent, exaggerate, or misattribute any skills, experiences, numbers or dates
- Every claim in your rewrite must be directly traceable to the source content or to facts the candidate stated in the conversation
- When a stronger phrasing would require a fact you do not have, list that fact under verificationNeeded instead of asserting it
- Keep the candidate's voice; improve relevance and clarity, not substance`,

	OptimizeCV: `You are an expert CV writer with a strict commitment to honesty:

- NEVER invent, exaggerate, or misattribute any skills, experiences, numbers or dates
- Every claim in your rewrite must be directly traceable to the source document
- Reorder and reword for relevance to the target job; never add substance`,

	CoverLetter: `You are an expert cover letter writer with a strict commitment to honesty:

- Every claim about the candidate must be traceable to the CV; never invent experiences, skills, numbers or dates
- Highlight relevant experience, address the key requirements of the posting, and express genuine interest in the role
- Professional but engaging tone; specific about contributions and achievements`,

	ExtractJobMeta: `You extract the job title and the employer name from a job posting. You return only what the posting states; you never guess brand names or normalize titles.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	ExtractJobExplicit: `Extract ONLY the explicitly stated requirements from the job posting below.

**Rules:**
- Every item must have type "explicit" and a "source" quoting or closely referencing the sentence it came from
- Do not add anything the posting does not state
- "title" is the job title exactly as the posting states it; if the posting does not state a title, use exactly "Position Not Specified"
- "keyRequirements" are must-have qualifications, "suggestedSkills" are nice-to-have skills, "recommendedHighlights" are experiences the posting asks candidates to emphasize
- "culturalFit.explicit" summarizes stated culture and values; leave "culturalFit.inferred" empty

**Job Posting:**
-----
%s
-----`,

	ExtractJobInferred: `Infer the unstated requirements a hiring manager would assume for the job posting below.

**Rules:**
- Every item must have type "inferred" and NO source
- Infer from the industry, role level and domain context; do not repeat anything the posting already states explicitly
- Use exactly "Position Not Specified" for "title" if the posting does not state one
- "culturalFit.inferred" summarizes the working culture the posting implies; leave "culturalFit.explicit" empty

**Job Posting:**
-----
%s
-----`,

	AnalyzeMatch: `Score the CV below against the job description across four rubrics (summary, skills, experience, education), plus overall fit and seniority fit.

**Scoring rules (all scores are integers 1-5):**

1. Each rubric score judges only that rubric's content against the job requirements.
2. The experience rubric is holistic over the whole position list: one highly relevant position justifies a high score even when other positions are unrelated. Unrelated positions must not drag the score down when at least one strong match exists; transferable skills from them count as supporting evidence.
3. The seniority score measures DISTANCE from the ideal level, not quality: 5 = perfect level match, 4 = slightly over or under, 3 = moderate mismatch, 2 = significant mismatch, 1 = extreme mismatch. Being far over-qualified scores exactly as poorly as being far under-qualified. Set "level" to the direction of the mismatch and list concrete "concerns".
4. "suggestedFocus" names the sections most worth improving, highest impact first.

**CV:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	AnalyzeSection: `Score the single CV section below against the job description.

**Rules:**
- Evaluate ONLY the content given here. Do not reference or assume any other section or any earlier version of this section.
- Score is an integer 1-5 judging how well this content serves the job requirements.

**Section (%s):**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	AnalyzePosition: `Score the single work position below against the job description.

**Rules:**
- Only this position's stated duties exist. Do not assume any other experience.
- Score is an integer 1-5. "gaps" and "strengths" are scoped to this position only.
- "relevance" explains in free text how this position relates to the target role, including transferable skills.

**Position:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	OptimizeSection: `Rewrite the CV section below to better match the job description, following the conversation so far.

**Rules:**
- Use only facts present in the current content or stated by the candidate in the conversation
- If a stronger claim would need a fact you do not have (a number, a date, a scope), do NOT assert it; list the missing fact under "verificationNeeded"
- "explanation" states what you changed and why it serves the job description
- Keep the section's structure: a text section stays text, a position list stays a position list with the same fields

**Section (%s), current content:**
-----
%s
-----

**Job Description:**
-----
%s
-----

**Conversation:**
-----
%s
-----`,

	OptimizeCV: `Rewrite the whole CV below to better match the job description.

**Rules:**
- Use only facts present in the CV; never add skills, numbers or dates it does not state
- Keep every position; reorder content within sections for relevance
- "suggestions" lists concrete improvements the candidate could make that you could not (missing facts, quantification opportunities)
- "highlights" lists the candidate's strongest matches to this specific job

**CV:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	CoverLetter: `Write a cover letter for the CV below applying to the job description below.

**Rules:**
- 3 to 4 paragraphs (introduction, body, conclusion), under 400 words
- Do not include contact information or a date
- Use only facts present in the CV; be specific about contributions and achievements
- "highlights" lists the 3-4 key points the letter emphasizes
- "keywordsUsed" lists the important keywords incorporated from the job description

**CV:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	ExtractJobMeta: `Extract the job title and the employer name from the posting below. Return empty strings for anything the posting does not state.

**Job Posting:**
-----
%s
-----`,
}

// languageInstruction is appended to user prompts when the source material is
// not in English, so generated text stays in the candidate's language.
const languageInstruction = "\n\nRespond in %s: all generated text fields (explanations, gaps, strengths, questions, rewritten content) must be written in %s."

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}
