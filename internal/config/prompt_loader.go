package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptFileRef ties a configured prompt file path to its load target.
type promptFileRef struct {
	path   string
	target *string
	kind   string // "system" or "user"
	name   string
}

// systemPromptRefs lists every system prompt that can be overridden by a file
func systemPromptRefs(prompts *SystemPrompts, target *LoadedSystemPrompts) []promptFileRef {
	return []promptFileRef{
		{prompts.ExtractJobFile, &target.ExtractJob, "system", "extractJob"},
		{prompts.AnalyzeMatchFile, &target.AnalyzeMatch, "system", "analyzeMatch"},
		{prompts.AnalyzeSectionFile, &target.AnalyzeSection, "system", "analyzeSection"},
		{prompts.AnalyzePositionFile, &target.AnalyzePosition, "system", "analyzePosition"},
		{prompts.OptimizeSectionFile, &target.OptimizeSection, "system", "optimizeSection"},
		{prompts.OptimizeCVFile, &target.OptimizeCV, "system", "optimizeCv"},
		{prompts.CoverLetterFile, &target.CoverLetter, "system", "coverLetter"},
		{prompts.ExtractJobMetaFile, &target.ExtractJobMeta, "system", "extractJobMeta"},
	}
}

// userPromptRefs lists every user prompt that can be overridden by a file
func userPromptRefs(prompts *UserPrompts, target *LoadedUserPrompts) []promptFileRef {
	return []promptFileRef{
		{prompts.ExtractExplicitFile, &target.ExtractExplicit, "user", "extractExplicit"},
		{prompts.ExtractInferredFile, &target.ExtractInferred, "user", "extractInferred"},
		{prompts.AnalyzeMatchFile, &target.AnalyzeMatch, "user", "analyzeMatch"},
		{prompts.AnalyzeSectionFile, &target.AnalyzeSection, "user", "analyzeSection"},
		{prompts.AnalyzePositionFile, &target.AnalyzePosition, "user", "analyzePosition"},
		{prompts.OptimizeSectionFile, &target.OptimizeSection, "user", "optimizeSection"},
		{prompts.OptimizeCVFile, &target.OptimizeCV, "user", "optimizeCv"},
		{prompts.CoverLetterFile, &target.CoverLetter, "user", "coverLetter"},
		{prompts.ExtractJobMetaFile, &target.ExtractJobMeta, "user", "extractJobMeta"},
	}
}

// operationPromptSets pairs each operation's prompt config with its load target
func (c *Config) operationPromptSets(all *AllLoadedPrompts) []struct {
	prompts *PromptConfig
	target  *OperationLoadedPrompts
} {
	return []struct {
		prompts *PromptConfig
		target  *OperationLoadedPrompts
	}{
		{&c.AI.Extract.CustomPrompts, &all.Extract},
		{&c.AI.Match.CustomPrompts, &all.Match},
		{&c.AI.Position.CustomPrompts, &all.Position},
		{&c.AI.Optimize.CustomPrompts, &all.Optimize},
		{&c.AI.OptimizeCv.CustomPrompts, &all.OptimizeCV},
		{&c.AI.CoverLetter.CustomPrompts, &all.CoverLetter},
		{&c.AI.Meta.CustomPrompts, &all.Meta},
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths
// are specified. The loaded set is swapped in atomically so concurrent readers
// never observe a half-loaded state.
func (c *Config) loadPromptsFromFiles() error {
	var next AllLoadedPrompts

	refs := systemPromptRefs(&c.AI.CustomPrompts.SystemPrompts, &next.Global.SystemPrompts)
	refs = append(refs, userPromptRefs(&c.AI.CustomPrompts.UserPrompts, &next.Global.UserPrompts)...)

	for _, set := range c.operationPromptSets(&next) {
		refs = append(refs, systemPromptRefs(&set.prompts.SystemPrompts, &set.target.SystemPrompts)...)
		refs = append(refs, userPromptRefs(&set.prompts.UserPrompts, &set.target.UserPrompts)...)
	}

	loaded := 0
	for _, ref := range refs {
		if ref.path == "" {
			continue
		}
		content, err := c.loadPromptFromFile(ref.path, ref.kind, ref.name)
		if err != nil {
			return err
		}
		*ref.target = content
		loaded++
	}

	promptsMu.Lock()
	loadedPrompts = next
	promptsMu.Unlock()

	if loaded == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", loaded)
	}
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	// Check if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	// Read file content
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// promptFilePaths returns every configured prompt file path, deduplicated.
func (c *Config) promptFilePaths() []string {
	var scratch AllLoadedPrompts

	refs := systemPromptRefs(&c.AI.CustomPrompts.SystemPrompts, &scratch.Global.SystemPrompts)
	refs = append(refs, userPromptRefs(&c.AI.CustomPrompts.UserPrompts, &scratch.Global.UserPrompts)...)
	for _, set := range c.operationPromptSets(&scratch) {
		refs = append(refs, systemPromptRefs(&set.prompts.SystemPrompts, &set.target.SystemPrompts)...)
		refs = append(refs, userPromptRefs(&set.prompts.UserPrompts, &set.target.UserPrompts)...)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, ref := range refs {
		if ref.path == "" || seen[ref.path] {
			continue
		}
		seen[ref.path] = true
		paths = append(paths, ref.path)
	}
	return paths
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	for _, path := range c.promptFilePaths() {
		absPath, err := filepath.Abs(path)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid prompt file path: %s", path))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("prompt file not found: %s", absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}
