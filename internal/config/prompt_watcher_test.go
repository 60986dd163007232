package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func watcherTestConfig(t *testing.T, enabled bool) (*Config, string) {
	t.Helper()

	tempDir := t.TempDir()
	promptFile := filepath.Join(tempDir, "system.match.md")
	if err := os.WriteFile(promptFile, []byte("Initial match prompt"), 0600); err != nil {
		t.Fatalf("Failed to create prompt file: %v", err)
	}

	cfg := &Config{
		AI: AIConfig{
			Match: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{
						AnalyzeMatchFile: promptFile,
					},
				},
			},
		},
		App: AppConfig{
			PromptReload: PromptReloadConfig{
				Enabled:       enabled,
				DebounceDelay: 10 * time.Millisecond,
			},
		},
	}
	return cfg, promptFile
}

func TestNewPromptWatcherDisabled(t *testing.T) {
	cfg, _ := watcherTestConfig(t, false)

	if pw := NewPromptWatcher(cfg, nil); pw != nil {
		t.Error("Expected nil watcher when prompt reload is disabled")
	}
}

func TestNewPromptWatcherNoFiles(t *testing.T) {
	cfg := &Config{
		App: AppConfig{
			PromptReload: PromptReloadConfig{Enabled: true},
		},
	}

	if pw := NewPromptWatcher(cfg, nil); pw != nil {
		t.Error("Expected nil watcher when no prompt files are configured")
	}
}

func TestPromptWatcherLifecycle(t *testing.T) {
	cfg, promptFile := watcherTestConfig(t, true)

	pw := NewPromptWatcher(cfg, nil)
	if pw == nil {
		t.Fatal("Expected a watcher when prompt reload is enabled")
	}

	files := pw.GetWatchedFiles()
	if len(files) != 1 || files[0] != promptFile {
		t.Errorf("Expected watched files [%s], got %v", promptFile, files)
	}

	if err := pw.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	if !pw.IsRunning() {
		t.Error("Expected watcher to be running after Start")
	}

	// Starting twice must fail
	if err := pw.Start(); err == nil {
		t.Error("Expected error when starting an already running watcher")
	}

	if err := pw.Stop(); err != nil {
		t.Fatalf("Failed to stop watcher: %v", err)
	}
	if pw.IsRunning() {
		t.Error("Expected watcher to be stopped after Stop")
	}

	// Stopping twice is a no-op
	if err := pw.Stop(); err != nil {
		t.Errorf("Expected second Stop to be a no-op, got error: %v", err)
	}
}

func TestPromptWatcherReloadOnChange(t *testing.T) {
	cfg, promptFile := watcherTestConfig(t, true)

	if err := cfg.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Initial prompt load failed: %v", err)
	}
	if got := GetPromptsForOperation("match").SystemPrompts.AnalyzeMatch; got != "Initial match prompt" {
		t.Fatalf("Unexpected initial prompt: %q", got)
	}

	pw := NewPromptWatcher(cfg, nil)
	if err := pw.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer func() {
		if err := pw.Stop(); err != nil {
			t.Errorf("Failed to stop watcher: %v", err)
		}
	}()

	// Modification times have second granularity on some file systems, so
	// bump the mtime explicitly instead of relying on a fast rewrite.
	if err := os.WriteFile(promptFile, []byte("Updated match prompt"), 0600); err != nil {
		t.Fatalf("Failed to update prompt file: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(promptFile, future, future); err != nil {
		t.Fatalf("Failed to bump prompt file mtime: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if GetPromptsForOperation("match").SystemPrompts.AnalyzeMatch == "Updated match prompt" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for prompt reload")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestPromptWatcherHasFileChanged(t *testing.T) {
	cfg, promptFile := watcherTestConfig(t, true)

	pw := NewPromptWatcher(cfg, nil)

	// First observation records the mtime and reports a change
	if !pw.hasFileChanged(promptFile) {
		t.Error("Expected first check to report a change")
	}

	// Unmodified file reports no change
	if pw.hasFileChanged(promptFile) {
		t.Error("Expected no change for an unmodified file")
	}

	// Newer mtime reports a change
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(promptFile, future, future); err != nil {
		t.Fatalf("Failed to bump prompt file mtime: %v", err)
	}
	if !pw.hasFileChanged(promptFile) {
		t.Error("Expected change after mtime bump")
	}

	// Deleting a tracked file counts as a change once
	if err := os.Remove(promptFile); err != nil {
		t.Fatalf("Failed to remove prompt file: %v", err)
	}
	if !pw.hasFileChanged(promptFile) {
		t.Error("Expected change when a tracked file is removed")
	}
	if pw.hasFileChanged(promptFile) {
		t.Error("Expected no further change for an already removed file")
	}
}
