package ai

import (
	"strings"
	"testing"

	"cvpilot/internal/types"
)

func TestResolvePrompt(t *testing.T) {
	t.Run("file content wins", func(t *testing.T) {
		got := resolvePrompt("from file", "from config", "default")
		if got != "from file" {
			t.Errorf("resolvePrompt() = %q, want %q", got, "from file")
		}
	})

	t.Run("config beats default", func(t *testing.T) {
		got := resolvePrompt("", "from config", "default")
		if got != "from config" {
			t.Errorf("resolvePrompt() = %q, want %q", got, "from config")
		}
	})

	t.Run("default as last resort", func(t *testing.T) {
		got := resolvePrompt("", "", "default")
		if got != "default" {
			t.Errorf("resolvePrompt() = %q, want %q", got, "default")
		}
	})
}

func TestApplyLanguage(t *testing.T) {
	t.Run("english passes through", func(t *testing.T) {
		if got := applyLanguage("prompt", "en"); got != "prompt" {
			t.Errorf("applyLanguage() = %q, want unchanged prompt", got)
		}
	})

	t.Run("empty passes through", func(t *testing.T) {
		if got := applyLanguage("prompt", ""); got != "prompt" {
			t.Errorf("applyLanguage() = %q, want unchanged prompt", got)
		}
	})

	t.Run("german appends instruction", func(t *testing.T) {
		got := applyLanguage("prompt", "de")
		if !strings.HasPrefix(got, "prompt") {
			t.Errorf("applyLanguage() = %q, want original prompt preserved", got)
		}
		if !strings.Contains(got, "German") {
			t.Errorf("applyLanguage() = %q, want German instruction appended", got)
		}
	})
}

func TestFormatHistory(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		got := formatHistory(nil)
		if got != "(no conversation yet)" {
			t.Errorf("formatHistory(nil) = %q", got)
		}
	})

	t.Run("roles are labeled", func(t *testing.T) {
		history := []types.ChatMessage{
			{Role: types.RoleUser, Content: "emphasize the platform migration"},
			{Role: types.RoleAssistant, Content: "done, see the draft"},
		}
		got := formatHistory(history)
		if !strings.Contains(got, "Candidate: emphasize the platform migration") {
			t.Errorf("formatHistory() missing user turn: %q", got)
		}
		if !strings.Contains(got, "Writer: done, see the draft") {
			t.Errorf("formatHistory() missing assistant turn: %q", got)
		}
	})
}

func TestPromptOperation(t *testing.T) {
	cases := map[string]string{
		"extractExplicit": "extract",
		"extractInferred": "extract",
		"match":           "match",
		"section":         "match",
		"position":        "position",
		"optimize":        "optimize",
		"optimizeCv":      "optimizeCv",
		"coverLetter":     "coverLetter",
		"meta":            "meta",
	}
	for promptType, want := range cases {
		if got := promptOperation(promptType); got != want {
			t.Errorf("promptOperation(%q) = %q, want %q", promptType, got, want)
		}
	}
}
