package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cvpilot/internal/ai"
	"cvpilot/internal/analysis"
	"cvpilot/internal/errors"
	"cvpilot/internal/optimize"
	"cvpilot/internal/types"
)

// SectionState is the lifecycle state of one optimizable section.
type SectionState string

const (
	StateUnvisited    SectionState = "unvisited"
	StateInDiscussion SectionState = "in_discussion"
	StateOptimized    SectionState = "optimized"
	StateAccepted     SectionState = "accepted"
	StateSkipped      SectionState = "skipped"
)

// Terminal reports whether no further transitions are possible from st.
func (st SectionState) Terminal() bool {
	return st == StateAccepted || st == StateSkipped
}

// SectionAnalysis is the latest scoring for a section: exactly one of the two
// fields is set, matching the section's shape.
type SectionAnalysis struct {
	Gap      *types.GapAnalysis
	Position *types.PositionAnalysis
}

// Score returns whichever score is present.
func (a SectionAnalysis) Score() int {
	if a.Position != nil {
		return a.Position.Score
	}
	if a.Gap != nil {
		return a.Gap.Score
	}
	return 0
}

// SessionContext carries everything one candidate-job pairing needs. The
// caller owns it; the session never reads ambient storage.
type SessionContext struct {
	CV             types.CVDocument
	JobDescription string
	JobAnalysis    types.JobAnalysis
}

// Outcome is the result of finalizing a session: the merged CV and the
// before/after match analyses. After is the authoritative post-optimization
// score, computed once over the merged document.
type Outcome struct {
	CV     types.CVDocument
	Before types.MatchAnalysis
	After  types.MatchAnalysis
}

type sectionRecord struct {
	state    SectionState
	chat     []types.ChatMessage
	draft    *types.SectionContent
	latest   SectionAnalysis
	baseline *types.PositionAnalysis
	pending  bool
}

// Session drives the refine, re-analyze, accept loop for one candidate-job
// pairing. State is process local; persistence happens only at explicit Save
// points. Calls for different sections may run concurrently, but each section
// serializes its optimize calls: a submission while one is in flight is
// rejected rather than interleaved.
type Session struct {
	id   uuid.UUID
	sctx SessionContext

	mu       sync.Mutex
	match    *types.MatchAnalysis
	sections map[types.SectionKey]*sectionRecord
	aborted  bool
	recorded bool

	gaps      *analysis.GapAnalyzer
	positions *analysis.PositionAnalyzer
	optimizer *optimize.SectionOptimizer
	logger    *errors.Logger
}

// NewSession validates the pairing and prepares per-section state. Start must
// run before any section work.
func NewSession(sctx SessionContext, provider ai.Provider, logger *errors.Logger) (*Session, error) {
	if strings.TrimSpace(sctx.JobDescription) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"Cannot open a session without a job description", nil)
	}
	if strings.TrimSpace(sctx.CV.Name) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"Cannot open a session without a CV", nil)
	}

	sections := make(map[types.SectionKey]*sectionRecord)
	for _, key := range types.SectionKeysFor(sctx.CV) {
		sections[key] = &sectionRecord{state: StateUnvisited}
	}

	return &Session{
		id:        uuid.New(),
		sctx:      sctx,
		sections:  sections,
		gaps:      analysis.NewGapAnalyzer(provider, logger),
		positions: analysis.NewPositionAnalyzer(provider, logger),
		optimizer: optimize.NewSectionOptimizer(provider, logger),
		logger:    logger,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Context returns the pairing this session operates on.
func (s *Session) Context() SessionContext { return s.sctx }

// Start runs the initial full-CV match analysis and pre-fetches one analysis
// per experience position. Position analyses run concurrently; each one sees
// only its own position.
func (s *Session) Start(ctx context.Context) error {
	match, err := s.gaps.AnalyzeMatch(ctx, s.sctx.CV, s.sctx.JobDescription, false)
	if err != nil {
		return err
	}

	prefetched := make([]types.PositionAnalysis, len(s.sctx.CV.Experience))
	g, gctx := errgroup.WithContext(ctx)
	for i, position := range s.sctx.CV.Experience {
		g.Go(func() error {
			result, err := s.positions.Analyze(gctx, position, s.sctx.JobDescription, false)
			if err != nil {
				return err
			}
			prefetched[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.match = &match
	for i := range prefetched {
		record := s.sections[types.ExperienceKey(i)]
		baseline := prefetched[i]
		record.baseline = &baseline
		record.latest = SectionAnalysis{Position: &baseline}
	}

	s.logger.Info("Session started",
		"session_id", s.id.String(),
		"overall_fit", match.OverallFit.Score,
		"seniority", string(match.SeniorityFit.Level),
		"positions", len(prefetched))
	return nil
}

// Match returns the initial full-CV analysis.
func (s *Session) Match() (types.MatchAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		return types.MatchAnalysis{}, errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"Session has not been started", nil)
	}
	return *s.match, nil
}

// Sections lists every addressable section key for the session's CV.
func (s *Session) Sections() []types.SectionKey {
	return types.SectionKeysFor(s.sctx.CV)
}

// State reports the lifecycle state of one section.
func (s *Session) State(key types.SectionKey) (SectionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.record(key)
	if err != nil {
		return "", err
	}
	return record.state, nil
}

// ChatHistory returns a copy of the section's transcript.
func (s *Session) ChatHistory(key types.SectionKey) ([]types.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.record(key)
	if err != nil {
		return nil, err
	}
	chat := make([]types.ChatMessage, len(record.chat))
	copy(chat, record.chat)
	return chat, nil
}

// Draft returns the section's current draft, if one exists.
func (s *Session) Draft(key types.SectionKey) (types.SectionContent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.record(key)
	if err != nil {
		return types.SectionContent{}, false, err
	}
	if record.draft == nil {
		return types.SectionContent{}, false, nil
	}
	return *record.draft, true, nil
}

// LatestAnalysis returns the most recent scoring for the section.
func (s *Session) LatestAnalysis(key types.SectionKey) (SectionAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.record(key)
	if err != nil {
		return SectionAnalysis{}, err
	}
	return record.latest, nil
}

// RecommendSkip reports whether the section's pre-fetched analysis scored low
// enough that skipping it is the better move. Always false for text sections.
func (s *Session) RecommendSkip(key types.SectionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, err := s.record(key)
	if err != nil || record.baseline == nil {
		return false
	}
	return analysis.RecommendSkip(*record.baseline)
}

// Open moves an unvisited section into discussion and seeds the transcript
// from its analysis. Opening a section already in discussion returns the
// existing transcript unchanged.
func (s *Session) Open(key types.SectionKey) ([]types.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	record, err := s.record(key)
	if err != nil {
		return nil, err
	}

	switch record.state {
	case StateUnvisited:
		record.state = StateInDiscussion
		record.chat = []types.ChatMessage{{Role: types.RoleAssistant, Content: s.seedMessage(key, record)}}
	case StateInDiscussion, StateOptimized:
		// already open
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Section %q is %s and cannot be reopened", key, record.state), nil)
	}

	chat := make([]types.ChatMessage, len(record.chat))
	copy(chat, record.chat)
	return chat, nil
}

// Submit records one user turn and produces a fresh draft with its re-scoring.
// The transcript is append-only: it survives a failed generation and is
// cleared only by Restart. A submission while another one for the same
// section is still in flight is rejected.
func (s *Session) Submit(ctx context.Context, key types.SectionKey, message string) (types.OptimizedSection, error) {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return types.OptimizedSection{}, err
	}
	record, err := s.record(key)
	if err != nil {
		s.mu.Unlock()
		return types.OptimizedSection{}, err
	}
	if record.state != StateInDiscussion && record.state != StateOptimized {
		s.mu.Unlock()
		return types.OptimizedSection{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Section %q is %s; open it before submitting", key, record.state), nil)
	}
	if record.pending {
		s.mu.Unlock()
		return types.OptimizedSection{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Section %q already has an optimization in flight", key), nil)
	}

	if trimmed := strings.TrimSpace(message); trimmed != "" {
		record.chat = append(record.chat, types.ChatMessage{Role: types.RoleUser, Content: trimmed})
	}

	content, err := s.currentContent(key, record)
	if err != nil {
		s.mu.Unlock()
		return types.OptimizedSection{}, err
	}
	chat := make([]types.ChatMessage, len(record.chat))
	copy(chat, record.chat)
	record.pending = true
	s.mu.Unlock()

	draft, latest, err := s.optimizeAndRescore(ctx, key, record, content, chat)

	s.mu.Lock()
	defer s.mu.Unlock()
	record.pending = false
	if err != nil {
		return types.OptimizedSection{}, err
	}
	// Abort may have run while the optimize call was in flight; its guarantee
	// is that no draft survives, so the result is dropped rather than stored.
	if s.aborted {
		return types.OptimizedSection{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Session was aborted; optimization result discarded", nil)
	}

	stored := draft.Content
	record.draft = &stored
	record.latest = latest
	record.chat = append(record.chat, types.ChatMessage{Role: types.RoleAssistant, Content: draft.Explanation})
	record.state = StateOptimized

	s.logger.Debug("Section draft updated",
		"session_id", s.id.String(),
		"section", string(key),
		"score", latest.Score(),
		"verification_items", len(draft.VerificationNeeded))
	return draft, nil
}

func (s *Session) optimizeAndRescore(ctx context.Context, key types.SectionKey, record *sectionRecord, content types.SectionContent, chat []types.ChatMessage) (types.OptimizedSection, SectionAnalysis, error) {
	draft, err := s.optimizer.Optimize(ctx, key, content, s.sctx.JobDescription, chat)
	if err != nil {
		return types.OptimizedSection{}, SectionAnalysis{}, err
	}

	if _, isExperience := key.ExperienceIndex(); isExperience {
		rescored, err := s.positions.Analyze(ctx, draft.Content.Positions[0], s.sctx.JobDescription, true)
		if err != nil {
			return types.OptimizedSection{}, SectionAnalysis{}, err
		}
		rescored.OriginalAnalysis = record.baseline
		return draft, SectionAnalysis{Position: &rescored}, nil
	}

	rescored, err := s.gaps.AnalyzeSection(ctx, key, draft.Content.Text, s.sctx.JobDescription, true)
	if err != nil {
		return types.OptimizedSection{}, SectionAnalysis{}, err
	}
	return draft, SectionAnalysis{Gap: &rescored}, nil
}

// Restart clears the section's draft, analysis, and transcript, then re-seeds
// the discussion from the original analysis.
func (s *Session) Restart(key types.SectionKey) ([]types.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	record, err := s.record(key)
	if err != nil {
		return nil, err
	}
	if record.state != StateInDiscussion && record.state != StateOptimized {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Section %q is %s and cannot restart", key, record.state), nil)
	}
	if record.pending {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Section %q has an optimization in flight", key), nil)
	}

	record.draft = nil
	record.latest = SectionAnalysis{}
	if record.baseline != nil {
		record.latest = SectionAnalysis{Position: record.baseline}
	}
	record.state = StateInDiscussion
	record.chat = []types.ChatMessage{{Role: types.RoleAssistant, Content: s.seedMessage(key, record)}}

	chat := make([]types.ChatMessage, len(record.chat))
	copy(chat, record.chat)
	return chat, nil
}

// Accept freezes the section's draft for inclusion in the final merge.
func (s *Session) Accept(key types.SectionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	record, err := s.record(key)
	if err != nil {
		return err
	}
	if record.state != StateOptimized && record.state != StateInDiscussion {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Section %q is %s and cannot be accepted", key, record.state), nil)
	}
	if record.draft == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Section %q has no draft to accept", key), nil)
	}
	if record.pending {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Section %q has an optimization in flight", key), nil)
	}
	record.state = StateAccepted
	return nil
}

// Skip marks the section as finished without changes. The original content is
// used verbatim in the final merge.
func (s *Session) Skip(key types.SectionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	record, err := s.record(key)
	if err != nil {
		return err
	}
	if record.state != StateUnvisited && record.state != StateInDiscussion {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Section %q is %s and cannot be skipped", key, record.state), nil)
	}
	record.state = StateSkipped
	return nil
}

// CanAbort reports whether the initial analysis justifies abandoning the
// pairing: the candidate is over-qualified or the seniority score is 2 or
// lower.
func (s *Session) CanAbort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		return false
	}
	return s.match.SeniorityFit.Level == types.SeniorityOverQualified || s.match.SeniorityFit.Score <= 2
}

// Abort abandons the session. Every draft is discarded and nothing is
// persisted; subsequent session calls are rejected.
func (s *Session) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return nil
	}
	s.aborted = true
	for _, record := range s.sections {
		record.draft = nil
		record.latest = SectionAnalysis{}
		record.chat = nil
	}
	s.logger.Info("Session aborted", "session_id", s.id.String())
	return nil
}

// Merge builds the optimized CV: the base CV with every accepted section's
// draft substituted in place. Sections in any other state keep their original
// content verbatim.
func (s *Session) Merge() (types.CVDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return types.CVDocument{}, err
	}

	merged := s.sctx.CV
	for _, key := range types.SectionKeysFor(s.sctx.CV) {
		record := s.sections[key]
		if record.state != StateAccepted || record.draft == nil {
			continue
		}
		var err error
		merged, err = types.ApplySectionContent(merged, key, *record.draft)
		if err != nil {
			return types.CVDocument{}, errors.NewInternalError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("Cannot apply accepted draft for section %q", key), err)
		}
	}
	return merged, nil
}

// Finalize merges the accepted drafts and re-scores the merged document once.
// That re-score is the authoritative after score; per-section snapshots are
// only progress indicators.
func (s *Session) Finalize(ctx context.Context) (Outcome, error) {
	before, err := s.Match()
	if err != nil {
		return Outcome{}, err
	}
	merged, err := s.Merge()
	if err != nil {
		return Outcome{}, err
	}
	after, err := s.gaps.AnalyzeMatch(ctx, merged, s.sctx.JobDescription, true)
	if err != nil {
		return Outcome{}, err
	}

	s.logger.Info("Session finalized",
		"session_id", s.id.String(),
		"fit_before", before.OverallFit.Score,
		"fit_after", after.OverallFit.Score)
	return Outcome{CV: merged, Before: before, After: after}, nil
}

// Save persists the outcome: the merged CV and an application record. A
// failed store call leaves in-memory session state untouched so the caller
// can retry without re-running any analysis.
func (s *Session) Save(ctx context.Context, cvs CVStore, apps ApplicationStore, meta types.JobMeta, outcome Outcome) error {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return err
	}
	recorded := s.recorded
	s.mu.Unlock()

	if err := cvs.PersistCV(ctx, outcome.CV); err != nil {
		return persistenceFailure("Saving the optimized CV failed", err)
	}

	record := ApplicationRecord{
		ID:             s.id,
		JobTitle:       meta.JobTitle,
		Employer:       meta.Employer,
		JobDescription: s.sctx.JobDescription,
		CV:             outcome.CV,
		MatchScore:     outcome.After.OverallFit.Score,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	var err error
	if recorded {
		err = apps.UpdateApplication(ctx, record)
	} else {
		err = apps.CreateApplication(ctx, record)
	}
	if err != nil {
		return persistenceFailure("Saving the application record failed", err)
	}

	s.mu.Lock()
	s.recorded = true
	s.mu.Unlock()
	return nil
}

func persistenceFailure(message string, cause error) error {
	if errors.HasCode(cause, errors.ErrCodePersistence) {
		return cause
	}
	return errors.NewPersistenceError(errors.ErrCodePersistence, message, cause)
}

func (s *Session) record(key types.SectionKey) (*sectionRecord, error) {
	record, ok := s.sections[key]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unknown section key: %q", key), nil)
	}
	return record, nil
}

func (s *Session) usable() error {
	if s.aborted {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Session was aborted", nil)
	}
	if s.match == nil {
		return errors.NewValidationError(errors.ErrCodeMissingPrereq,
			"Session has not been started", nil)
	}
	return nil
}

// currentContent returns the section's draft when one exists, the original CV
// content otherwise.
func (s *Session) currentContent(key types.SectionKey, record *sectionRecord) (types.SectionContent, error) {
	if record.draft != nil {
		return *record.draft, nil
	}
	return types.SectionContentOf(s.sctx.CV, key)
}

// seedMessage opens the discussion with what the analysis already knows about
// the section.
func (s *Session) seedMessage(key types.SectionKey, record *sectionRecord) string {
	var sb strings.Builder

	if record.baseline != nil {
		sb.WriteString(record.baseline.Relevance)
		appendQuestions(&sb, record.baseline.Questions)
		return sb.String()
	}

	if rubric := s.rubricFor(key); rubric != nil {
		if len(rubric.Gaps) > 0 {
			sb.WriteString("Identified gaps: ")
			sb.WriteString(strings.Join(rubric.Gaps, "; "))
		} else {
			sb.WriteString("No significant gaps were identified in this section.")
		}
		appendQuestions(&sb, rubric.Questions)
		return sb.String()
	}

	fmt.Fprintf(&sb, "What would you like to change about the %s section?", key)
	return sb.String()
}

func (s *Session) rubricFor(key types.SectionKey) *types.GapAnalysis {
	if s.match == nil {
		return nil
	}
	switch key {
	case types.SectionSummary:
		return &s.match.GapAnalysis.Summary
	case types.SectionSkills:
		return &s.match.GapAnalysis.Skills
	case types.SectionEducation:
		return &s.match.GapAnalysis.Education
	}
	return nil
}

func appendQuestions(sb *strings.Builder, questions []string) {
	if len(questions) == 0 {
		return
	}
	sb.WriteString("\n\nTo improve this section, consider:")
	for _, q := range questions {
		sb.WriteString("\n- ")
		sb.WriteString(q)
	}
}
