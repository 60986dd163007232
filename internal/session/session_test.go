package session

import (
	"context"
	"strings"
	"sync"
	"testing"

	"cvpilot/internal/ai"
	"cvpilot/internal/errors"
	"cvpilot/internal/types"
)

type stubProvider struct {
	extractJob      func(context.Context, ai.ExtractJobInput) (types.JobAnalysis, *ai.TokenUsage, error)
	analyzeMatch    func(context.Context, ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error)
	analyzeSection  func(context.Context, ai.AnalyzeSectionInput) (types.GapAnalysis, *ai.TokenUsage, error)
	analyzePosition func(context.Context, ai.AnalyzePositionInput) (types.PositionAnalysis, *ai.TokenUsage, error)
	optimizeSection func(context.Context, ai.OptimizeSectionInput) (types.OptimizedSection, *ai.TokenUsage, error)
	optimizeCV      func(context.Context, ai.OptimizeCVInput) (types.OptimizedCV, *ai.TokenUsage, error)
	coverLetter     func(context.Context, ai.GenerateCoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error)
	extractJobMeta  func(context.Context, ai.ExtractJobMetaInput) (types.JobMeta, *ai.TokenUsage, error)
}

func (s *stubProvider) ExtractJob(ctx context.Context, input ai.ExtractJobInput) (types.JobAnalysis, *ai.TokenUsage, error) {
	return s.extractJob(ctx, input)
}

func (s *stubProvider) AnalyzeMatch(ctx context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
	return s.analyzeMatch(ctx, input)
}

func (s *stubProvider) AnalyzeSection(ctx context.Context, input ai.AnalyzeSectionInput) (types.GapAnalysis, *ai.TokenUsage, error) {
	return s.analyzeSection(ctx, input)
}

func (s *stubProvider) AnalyzePosition(ctx context.Context, input ai.AnalyzePositionInput) (types.PositionAnalysis, *ai.TokenUsage, error) {
	return s.analyzePosition(ctx, input)
}

func (s *stubProvider) OptimizeSection(ctx context.Context, input ai.OptimizeSectionInput) (types.OptimizedSection, *ai.TokenUsage, error) {
	return s.optimizeSection(ctx, input)
}

func (s *stubProvider) OptimizeCV(ctx context.Context, input ai.OptimizeCVInput) (types.OptimizedCV, *ai.TokenUsage, error) {
	return s.optimizeCV(ctx, input)
}

func (s *stubProvider) GenerateCoverLetter(ctx context.Context, input ai.GenerateCoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error) {
	return s.coverLetter(ctx, input)
}

func (s *stubProvider) ExtractJobMeta(ctx context.Context, input ai.ExtractJobMetaInput) (types.JobMeta, *ai.TokenUsage, error) {
	return s.extractJobMeta(ctx, input)
}

func (s *stubProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub"}
}

func (s *stubProvider) Close() error { return nil }

func testLogger() *errors.Logger {
	logger, _ := errors.New("error")
	return logger
}

func testCV() types.CVDocument {
	return types.CVDocument{
		Name:    "Jordan Beck",
		Summary: "Backend engineer focused on data pipelines.",
		Skills:  "Go, PostgreSQL, Kafka",
		Experience: []types.Position{
			{Company: "Acme", Title: "Engineer", StartDate: "2016-01", EndDate: "2019-06", Description: "Built reporting services."},
			{Company: "Globex", Title: "Senior Engineer", StartDate: "2019-07", EndDate: "2022-12", Description: "Led the ingestion platform."},
			{Company: "Initech", Title: "Staff Engineer", StartDate: "2023-01", EndDate: "present", Description: "Owns the data platform."},
		},
		Education: "BSc Computer Science",
	}
}

func wellMatched() types.MatchAnalysis {
	rubric := types.GapAnalysis{
		Gaps:      []string{"No Kubernetes experience mentioned"},
		Strengths: []string{"Strong pipeline background"},
		Score:     4,
		Questions: []string{"Have you operated Kubernetes clusters?"},
	}
	return types.MatchAnalysis{
		OverallFit:   types.OverallFit{Score: 4, Explanation: "Good fit"},
		SeniorityFit: types.SeniorityFit{Score: 5, Level: types.SeniorityWellMatched, Explanation: "On level", Concerns: []string{}},
		GapAnalysis:  types.RubricSet{Summary: rubric, Skills: rubric, Experience: rubric, Education: rubric},
	}
}

func positionAnalysis(score int) types.PositionAnalysis {
	return types.PositionAnalysis{
		GapAnalysis: types.GapAnalysis{
			Gaps:      []string{"No metrics in description"},
			Strengths: []string{"Relevant platform work"},
			Score:     score,
			Questions: []string{"What was the team size?"},
		},
		Relevance: "Directly relevant platform experience.",
	}
}

// happyProvider scripts a full well-matched session: every analysis succeeds
// and every optimize call echoes the content back with a marker prefix.
func happyProvider() *stubProvider {
	return &stubProvider{
		analyzeMatch: func(_ context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
			return wellMatched(), nil, nil
		},
		analyzePosition: func(_ context.Context, input ai.AnalyzePositionInput) (types.PositionAnalysis, *ai.TokenUsage, error) {
			return positionAnalysis(4), nil, nil
		},
		analyzeSection: func(_ context.Context, input ai.AnalyzeSectionInput) (types.GapAnalysis, *ai.TokenUsage, error) {
			return types.GapAnalysis{Score: 5, Gaps: []string{}, Strengths: []string{"Tightened"}, Questions: []string{}}, nil, nil
		},
		optimizeSection: func(_ context.Context, input ai.OptimizeSectionInput) (types.OptimizedSection, *ai.TokenUsage, error) {
			if input.Content.IsExperience() {
				rewritten := input.Content.Positions[0]
				rewritten.Description = "Refined: " + rewritten.Description
				return types.OptimizedSection{
					Content:     types.ExperienceContent([]types.Position{rewritten}),
					Explanation: "Sharpened the description.",
				}, nil, nil
			}
			return types.OptimizedSection{
				Content:     types.TextContent("Refined: " + input.Content.Text),
				Explanation: "Sharpened the wording.",
			}, nil, nil
		},
	}
}

func startedSession(t *testing.T, provider ai.Provider) *Session {
	t.Helper()
	s, err := NewSession(SessionContext{CV: testCV(), JobDescription: "Senior data platform engineer role"}, provider, testLogger())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s
}

func TestStartPrefetchesPositionAnalyses(t *testing.T) {
	var mu sync.Mutex
	analyzed := map[string]bool{}
	provider := happyProvider()
	base := provider.analyzePosition
	provider.analyzePosition = func(ctx context.Context, input ai.AnalyzePositionInput) (types.PositionAnalysis, *ai.TokenUsage, error) {
		mu.Lock()
		analyzed[input.Position.Company] = true
		mu.Unlock()
		return base(ctx, input)
	}

	s := startedSession(t, provider)

	for _, company := range []string{"Acme", "Globex", "Initech"} {
		if !analyzed[company] {
			t.Errorf("position for %s was not pre-fetched", company)
		}
	}
	for i := range 3 {
		latest, err := s.LatestAnalysis(types.ExperienceKey(i))
		if err != nil {
			t.Fatalf("LatestAnalysis(%d) error = %v", i, err)
		}
		if latest.Position == nil {
			t.Errorf("experience_%d has no baseline analysis", i)
		}
	}
}

func TestMergeUsesOnlyAcceptedDrafts(t *testing.T) {
	s := startedSession(t, happyProvider())
	ctx := context.Background()
	original := testCV()

	if _, err := s.Open(types.ExperienceKey(1)); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	draft, err := s.Submit(ctx, types.ExperienceKey(1), "Emphasize the platform leadership")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := s.Accept(types.ExperienceKey(1)); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if err := s.Skip(types.ExperienceKey(0)); err != nil {
		t.Fatalf("Skip(0) error = %v", err)
	}
	if err := s.Skip(types.ExperienceKey(2)); err != nil {
		t.Fatalf("Skip(2) error = %v", err)
	}

	merged, err := s.Merge()
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if len(merged.Experience) != 3 {
		t.Fatalf("merged has %d positions, want 3", len(merged.Experience))
	}
	if merged.Experience[0] != original.Experience[0] {
		t.Error("experience[0] changed despite being skipped")
	}
	if merged.Experience[1] != draft.Content.Positions[0] {
		t.Error("experience[1] is not the accepted draft")
	}
	if merged.Experience[2] != original.Experience[2] {
		t.Error("experience[2] changed despite being skipped")
	}
	if merged.Summary != original.Summary {
		t.Error("summary changed despite never being visited")
	}
}

func TestTextSectionLoop(t *testing.T) {
	s := startedSession(t, happyProvider())
	ctx := context.Background()

	chat, err := s.Open(types.SectionSummary)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(chat) != 1 || chat[0].Role != types.RoleAssistant {
		t.Fatalf("seed chat = %+v, want one assistant message", chat)
	}
	if !strings.Contains(chat[0].Content, "Kubernetes") {
		t.Errorf("seed %q does not surface the rubric gaps", chat[0].Content)
	}

	draft, err := s.Submit(ctx, types.SectionSummary, "Lead with the pipeline work")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !strings.HasPrefix(draft.Content.Text, "Refined:") {
		t.Errorf("draft = %q, want the rewritten text", draft.Content.Text)
	}

	state, _ := s.State(types.SectionSummary)
	if state != StateOptimized {
		t.Errorf("state = %s, want %s", state, StateOptimized)
	}
	latest, _ := s.LatestAnalysis(types.SectionSummary)
	if latest.Gap == nil || latest.Gap.Score != 5 {
		t.Errorf("latest analysis = %+v, want re-scored gap analysis", latest)
	}

	chat, err = s.ChatHistory(types.SectionSummary)
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}
	if len(chat) != 3 {
		t.Fatalf("transcript has %d messages, want seed + user + assistant", len(chat))
	}
}

func TestRestartClearsSectionState(t *testing.T) {
	s := startedSession(t, happyProvider())
	ctx := context.Background()

	if _, err := s.Open(types.SectionSummary); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.Submit(ctx, types.SectionSummary, "Make it punchier"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	chat, err := s.Restart(types.SectionSummary)
	if err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if len(chat) != 1 {
		t.Errorf("restarted transcript has %d messages, want just the seed", len(chat))
	}
	if _, ok, _ := s.Draft(types.SectionSummary); ok {
		t.Error("draft survived a restart")
	}
	state, _ := s.State(types.SectionSummary)
	if state != StateInDiscussion {
		t.Errorf("state = %s, want %s", state, StateInDiscussion)
	}
}

func TestTransitionGuards(t *testing.T) {
	s := startedSession(t, happyProvider())
	ctx := context.Background()

	t.Run("submit requires open section", func(t *testing.T) {
		_, err := s.Submit(ctx, types.SectionSkills, "tighten it")
		if !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("error = %v, want INVALID_REQUEST", err)
		}
	})

	t.Run("accept requires a draft", func(t *testing.T) {
		if _, err := s.Open(types.SectionSkills); err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		err := s.Accept(types.SectionSkills)
		if !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("error = %v, want INVALID_REQUEST", err)
		}
	})

	t.Run("skipped is terminal", func(t *testing.T) {
		if err := s.Skip(types.SectionEducation); err != nil {
			t.Fatalf("Skip() error = %v", err)
		}
		if _, err := s.Open(types.SectionEducation); !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("Open after skip error = %v, want INVALID_REQUEST", err)
		}
	})

	t.Run("optimized cannot be skipped", func(t *testing.T) {
		if _, err := s.Open(types.SectionLanguages); err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, err := s.Submit(ctx, types.SectionLanguages, "add proficiency levels"); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if err := s.Skip(types.SectionLanguages); !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("Skip after optimize error = %v, want INVALID_REQUEST", err)
		}
	})

	t.Run("unknown section", func(t *testing.T) {
		if _, err := s.Open(types.SectionKey("experience_99")); !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("error = %v, want INVALID_REQUEST", err)
		}
	})
}

func TestSubmitSerializedWithinSection(t *testing.T) {
	provider := happyProvider()
	entered := make(chan struct{})
	release := make(chan struct{})
	base := provider.optimizeSection
	provider.optimizeSection = func(ctx context.Context, input ai.OptimizeSectionInput) (types.OptimizedSection, *ai.TokenUsage, error) {
		close(entered)
		<-release
		return base(ctx, input)
	}

	s := startedSession(t, provider)
	if _, err := s.Open(types.SectionSummary); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), types.SectionSummary, "first")
		done <- err
	}()

	<-entered
	_, err := s.Submit(context.Background(), types.SectionSummary, "second")
	if !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("concurrent submit error = %v, want INVALID_REQUEST", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit error = %v", err)
	}
}

func TestAbortDiscardsAllDrafts(t *testing.T) {
	provider := happyProvider()
	provider.analyzeMatch = func(_ context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
		m := wellMatched()
		m.SeniorityFit = types.SeniorityFit{Score: 1, Level: types.SeniorityOverQualified, Explanation: "Far above level", Concerns: []string{"Likely to disengage"}}
		return m, nil, nil
	}

	s := startedSession(t, provider)
	ctx := context.Background()

	if !s.CanAbort() {
		t.Fatal("CanAbort() = false for an over-qualified candidate")
	}

	if _, err := s.Open(types.SectionSummary); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.Submit(ctx, types.SectionSummary, "trim it down"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := s.Abort(); err != nil {
		t.Fatalf("Abort() error = %v", err)
	}

	for _, key := range s.Sections() {
		if _, ok, _ := s.Draft(key); ok {
			t.Errorf("section %s kept its draft past abort", key)
		}
	}
	if _, err := s.Merge(); !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("Merge after abort error = %v, want INVALID_REQUEST", err)
	}
}

func TestAbortDuringInFlightSubmitDiscardsResult(t *testing.T) {
	provider := happyProvider()
	entered := make(chan struct{})
	release := make(chan struct{})
	base := provider.optimizeSection
	provider.optimizeSection = func(ctx context.Context, input ai.OptimizeSectionInput) (types.OptimizedSection, *ai.TokenUsage, error) {
		close(entered)
		<-release
		return base(ctx, input)
	}

	s := startedSession(t, provider)
	if _, err := s.Open(types.SectionSummary); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), types.SectionSummary, "tighten it")
		done <- err
	}()

	<-entered
	if err := s.Abort(); err != nil {
		t.Fatalf("Abort() error = %v", err)
	}
	close(release)

	if err := <-done; !errors.HasCode(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("in-flight Submit error = %v, want rejection after abort", err)
	}
	for _, key := range s.Sections() {
		if _, ok, _ := s.Draft(key); ok {
			t.Errorf("section %s holds a draft written into an aborted session", key)
		}
	}
}

func TestAbortNotOfferedWhenWellMatched(t *testing.T) {
	s := startedSession(t, happyProvider())
	if s.CanAbort() {
		t.Error("CanAbort() = true for a well-matched candidate")
	}
}

func TestFinalizeRescoresMergedDocument(t *testing.T) {
	provider := happyProvider()
	var finalInput ai.AnalyzeMatchInput
	calls := 0
	provider.analyzeMatch = func(_ context.Context, input ai.AnalyzeMatchInput) (types.MatchAnalysis, *ai.TokenUsage, error) {
		calls++
		if input.OptimizedPass {
			finalInput = input
			m := wellMatched()
			m.OverallFit.Score = 5
			return m, nil, nil
		}
		return wellMatched(), nil, nil
	}

	s := startedSession(t, provider)
	ctx := context.Background()

	if _, err := s.Open(types.SectionSummary); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.Submit(ctx, types.SectionSummary, "lead with impact"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := s.Accept(types.SectionSummary); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	outcome, err := s.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if outcome.Before.OverallFit.Score != 4 || outcome.After.OverallFit.Score != 5 {
		t.Errorf("scores = %d -> %d, want 4 -> 5", outcome.Before.OverallFit.Score, outcome.After.OverallFit.Score)
	}
	if !strings.HasPrefix(finalInput.CV.Summary, "Refined:") {
		t.Error("final re-score did not receive the merged document")
	}
	if calls != 2 {
		t.Errorf("AnalyzeMatch called %d times, want initial + final", calls)
	}
}

type failingApplicationStore struct{}

func (failingApplicationStore) CreateApplication(context.Context, ApplicationRecord) error {
	return errors.NewPersistenceError(errors.ErrCodePersistence, "store unavailable", nil)
}

func (failingApplicationStore) UpdateApplication(context.Context, ApplicationRecord) error {
	return errors.NewPersistenceError(errors.ErrCodePersistence, "store unavailable", nil)
}

func TestSaveFailureLeavesSessionRetryable(t *testing.T) {
	s := startedSession(t, happyProvider())
	ctx := context.Background()

	if _, err := s.Open(types.SectionSummary); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.Submit(ctx, types.SectionSummary, "sharper opener"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := s.Accept(types.SectionSummary); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	outcome, err := s.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	cvs := NewMemoryCVStore()
	meta := types.JobMeta{JobTitle: "Platform Engineer", Employer: "Globex"}

	err = s.Save(ctx, cvs, failingApplicationStore{}, meta, outcome)
	if !errors.HasCode(err, errors.ErrCodePersistence) {
		t.Fatalf("Save() error = %v, want PERSISTENCE_FAILED", err)
	}

	if _, ok, _ := s.Draft(types.SectionSummary); !ok {
		t.Error("draft lost after a failed save")
	}

	apps := NewMemoryApplicationStore()
	if err := s.Save(ctx, cvs, apps, meta, outcome); err != nil {
		t.Fatalf("retried Save() error = %v", err)
	}
	record, ok := apps.GetApplication(s.ID())
	if !ok {
		t.Fatal("application record missing after save")
	}
	if record.MatchScore != outcome.After.OverallFit.Score {
		t.Errorf("record score = %d, want the final score %d", record.MatchScore, outcome.After.OverallFit.Score)
	}
	stored, err := cvs.FetchCurrentCV(ctx)
	if err != nil {
		t.Fatalf("FetchCurrentCV() error = %v", err)
	}
	if stored.Summary != outcome.CV.Summary {
		t.Error("stored CV is not the merged document")
	}
}

func TestOpenSeedsExperienceFromRelevance(t *testing.T) {
	s := startedSession(t, happyProvider())

	chat, err := s.Open(types.ExperienceKey(0))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !strings.Contains(chat[0].Content, "Directly relevant") {
		t.Errorf("seed %q does not carry the relevance text", chat[0].Content)
	}
	if !strings.Contains(chat[0].Content, "team size") {
		t.Errorf("seed %q does not carry the analysis questions", chat[0].Content)
	}
}

func TestRecommendSkipSurfacesLowScores(t *testing.T) {
	provider := happyProvider()
	provider.analyzePosition = func(_ context.Context, input ai.AnalyzePositionInput) (types.PositionAnalysis, *ai.TokenUsage, error) {
		if input.Position.Company == "Acme" {
			return positionAnalysis(1), nil, nil
		}
		return positionAnalysis(4), nil, nil
	}

	s := startedSession(t, provider)
	if !s.RecommendSkip(types.ExperienceKey(0)) {
		t.Error("RecommendSkip = false for a score of 1")
	}
	if s.RecommendSkip(types.ExperienceKey(1)) {
		t.Error("RecommendSkip = true for a score of 4")
	}
	if s.RecommendSkip(types.SectionSummary) {
		t.Error("RecommendSkip = true for a text section")
	}
}
