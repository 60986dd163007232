package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cvpilot/internal/ai"
	cvpilotErrors "cvpilot/internal/errors"
	"cvpilot/internal/types"
)

func TestExtractMergesBothPasses(t *testing.T) {
	provider := &stubProvider{
		extractJob: func(_ context.Context, input ai.ExtractJobInput) (types.JobAnalysis, *ai.TokenUsage, error) {
			switch input.Pass {
			case types.RequirementExplicit:
				return types.JobAnalysis{
					Title: "Data Engineer",
					KeyRequirements: []types.JobRequirement{
						{Text: "5+ years of Python", Type: types.RequirementExplicit, Source: "5+ years of Python and stakeholder management required"},
					},
					CulturalFit: types.CulturalFit{Explicit: "collaborative, delivery-focused"},
				}, nil, nil
			default:
				return types.JobAnalysis{
					KeyRequirements: []types.JobRequirement{
						{Text: "Airflow familiarity", Type: types.RequirementInferred},
					},
					CulturalFit: types.CulturalFit{Inferred: "fast-moving data team"},
				}, nil, nil
			}
		},
	}

	extractor := NewExtractor(provider, testLogger())
	got, err := extractor.Extract(context.Background(), "5+ years of Python and stakeholder management required")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if got.Title != "Data Engineer" {
		t.Errorf("Title = %q, want %q", got.Title, "Data Engineer")
	}
	if len(got.KeyRequirements) != 2 {
		t.Fatalf("KeyRequirements has %d items, want 2", len(got.KeyRequirements))
	}
	if got.KeyRequirements[0].Type != types.RequirementExplicit {
		t.Errorf("first requirement type = %q, want explicit first", got.KeyRequirements[0].Type)
	}
	if !strings.Contains(got.KeyRequirements[0].Source, "5+ years of Python") {
		t.Errorf("explicit requirement source = %q, want posting reference", got.KeyRequirements[0].Source)
	}
	if got.KeyRequirements[1].Type != types.RequirementInferred {
		t.Errorf("second requirement type = %q, want inferred", got.KeyRequirements[1].Type)
	}
	if got.CulturalFit.Explicit != "collaborative, delivery-focused" {
		t.Errorf("CulturalFit.Explicit = %q", got.CulturalFit.Explicit)
	}
	if got.CulturalFit.Inferred != "fast-moving data team" {
		t.Errorf("CulturalFit.Inferred = %q", got.CulturalFit.Inferred)
	}
}

func TestExtractTitleSentinel(t *testing.T) {
	provider := &stubProvider{
		extractJob: func(_ context.Context, input ai.ExtractJobInput) (types.JobAnalysis, *ai.TokenUsage, error) {
			return types.JobAnalysis{Title: "  "}, nil, nil
		},
	}

	extractor := NewExtractor(provider, testLogger())
	got, err := extractor.Extract(context.Background(), "some posting without a title")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Title != types.TitleNotSpecified {
		t.Errorf("Title = %q, want sentinel %q", got.Title, types.TitleNotSpecified)
	}
}

func TestExtractFailedPassFailsWhole(t *testing.T) {
	for _, failing := range []types.RequirementType{types.RequirementExplicit, types.RequirementInferred} {
		t.Run(string(failing)+" pass fails", func(t *testing.T) {
			provider := &stubProvider{
				extractJob: func(_ context.Context, input ai.ExtractJobInput) (types.JobAnalysis, *ai.TokenUsage, error) {
					if input.Pass == failing {
						return types.JobAnalysis{}, nil, errors.New("model unavailable")
					}
					return types.JobAnalysis{Title: "Engineer"}, nil, nil
				},
			}

			extractor := NewExtractor(provider, testLogger())
			_, err := extractor.Extract(context.Background(), "a posting")
			if err == nil {
				t.Fatal("Extract() error = nil, want incomplete analysis error")
			}
			if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeIncompleteAnalysis) {
				t.Errorf("Extract() error = %v, want code %s", err, cvpilotErrors.ErrCodeIncompleteAnalysis)
			}
		})
	}
}

func TestExtractStripsInferredSources(t *testing.T) {
	provider := &stubProvider{
		extractJob: func(_ context.Context, input ai.ExtractJobInput) (types.JobAnalysis, *ai.TokenUsage, error) {
			if input.Pass == types.RequirementInferred {
				return types.JobAnalysis{
					SuggestedSkills: []types.JobRequirement{
						// Model fabricated a source for an inferred item.
						{Text: "Terraform", Type: types.RequirementInferred, Source: "made up"},
					},
				}, nil, nil
			}
			return types.JobAnalysis{Title: "Platform Engineer"}, nil, nil
		},
	}

	extractor := NewExtractor(provider, testLogger())
	got, err := extractor.Extract(context.Background(), "a posting")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got.SuggestedSkills) != 1 {
		t.Fatalf("SuggestedSkills has %d items, want 1", len(got.SuggestedSkills))
	}
	if got.SuggestedSkills[0].Source != "" {
		t.Errorf("inferred requirement kept source %q, want empty", got.SuggestedSkills[0].Source)
	}
}

func TestExtractRejectsSourcelessExplicitRequirement(t *testing.T) {
	provider := &stubProvider{
		extractJob: func(_ context.Context, input ai.ExtractJobInput) (types.JobAnalysis, *ai.TokenUsage, error) {
			if input.Pass == types.RequirementExplicit {
				return types.JobAnalysis{
					Title: "Data Engineer",
					KeyRequirements: []types.JobRequirement{
						{Text: "5+ years of Python", Type: types.RequirementExplicit},
					},
				}, nil, nil
			}
			return types.JobAnalysis{}, nil, nil
		},
	}

	extractor := NewExtractor(provider, testLogger())
	_, err := extractor.Extract(context.Background(), "a posting")
	if err == nil {
		t.Fatal("Extract() error = nil, want rejection of explicit item without source")
	}
	if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeIncompleteAnalysis) {
		t.Errorf("Extract() error = %v, want code %s", err, cvpilotErrors.ErrCodeIncompleteAnalysis)
	}
}

func TestExtractEmptyJobDescription(t *testing.T) {
	extractor := NewExtractor(&stubProvider{}, testLogger())
	_, err := extractor.Extract(context.Background(), "   ")
	if err == nil {
		t.Fatal("Extract() error = nil, want validation error")
	}
	if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeInvalidRequest) {
		t.Errorf("Extract() error = %v, want code %s", err, cvpilotErrors.ErrCodeInvalidRequest)
	}
}
