package optimize

import (
	"context"
	"testing"

	"cvpilot/internal/ai"
	cvpilotErrors "cvpilot/internal/errors"
	"cvpilot/internal/types"
)

func letterCV() types.CVDocument {
	return types.CVDocument{
		Name:   "Ada Example",
		Skills: "Python, SQL",
		Experience: []types.Position{
			{Company: "Acme", Title: "Engineer", StartDate: "2020-01", EndDate: "2023-06", Description: "Built pipelines."},
		},
	}
}

func TestWriteCoverLetter(t *testing.T) {
	provider := &stubProvider{
		coverLetter: func(_ context.Context, input ai.GenerateCoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error) {
			return types.CoverLetter{
				Content:      "Dear hiring team, my pipeline work at Acme maps directly onto this role.",
				Highlights:   []string{"Three years of Python pipeline experience"},
				KeywordsUsed: []string{"Python", "pipelines"},
			}, nil, nil
		},
	}

	writer := NewLetterWriter(provider, testLogger())
	got, err := writer.Write(context.Background(), letterCV(), "Python data engineering role")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got.Content == "" {
		t.Error("letter content is empty")
	}
	if len(got.Highlights) != 1 || len(got.KeywordsUsed) != 2 {
		t.Errorf("Highlights = %v, KeywordsUsed = %v, want the scripted points", got.Highlights, got.KeywordsUsed)
	}
}

func TestWriteCoverLetterRequiresJobDescription(t *testing.T) {
	writer := NewLetterWriter(&stubProvider{}, testLogger())
	_, err := writer.Write(context.Background(), letterCV(), "  ")
	if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeMissingPrereq) {
		t.Errorf("Write() error = %v, want missing-prerequisite rejection", err)
	}
}

func TestWriteCoverLetterRequiresCVContent(t *testing.T) {
	writer := NewLetterWriter(&stubProvider{}, testLogger())
	_, err := writer.Write(context.Background(), types.CVDocument{}, "Python data engineering role")
	if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeMissingPrereq) {
		t.Errorf("Write() error = %v, want missing-prerequisite rejection", err)
	}
}

func TestWriteCoverLetterLanguageFollowsJobDescription(t *testing.T) {
	var gotLanguage string
	provider := &stubProvider{
		coverLetter: func(_ context.Context, input ai.GenerateCoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error) {
			gotLanguage = input.Language
			return types.CoverLetter{Content: "Sehr geehrtes Team, ..."}, nil, nil
		},
	}

	writer := NewLetterWriter(provider, testLogger())
	_, err := writer.Write(context.Background(), letterCV(),
		"Wir suchen eine Entwicklerin für Datenpipelines in München")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if gotLanguage != "de" {
		t.Errorf("provider received language %q, want \"de\" from the job description", gotLanguage)
	}
}

func TestWriteCoverLetterRejectsEmptyLetter(t *testing.T) {
	provider := &stubProvider{
		coverLetter: func(_ context.Context, input ai.GenerateCoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error) {
			return types.CoverLetter{Content: "   "}, nil, nil
		},
	}

	writer := NewLetterWriter(provider, testLogger())
	_, err := writer.Write(context.Background(), letterCV(), "Python data engineering role")
	if !cvpilotErrors.HasCode(err, cvpilotErrors.ErrCodeNoContent) {
		t.Errorf("Write() error = %v, want empty-content rejection", err)
	}
}
