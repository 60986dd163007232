package config

import (
	"sync"
)

var (
	promptsMu     sync.RWMutex
	loadedPrompts AllLoadedPrompts
)

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// LoadedSystemPrompts contains loaded system-level instructions
type LoadedSystemPrompts struct {
	ExtractJob      string
	AnalyzeMatch    string
	AnalyzeSection  string
	AnalyzePosition string
	OptimizeSection string
	OptimizeCV      string
	CoverLetter     string
	ExtractJobMeta  string
}

// LoadedUserPrompts contains loaded user-level prompt templates
type LoadedUserPrompts struct {
	ExtractExplicit string
	ExtractInferred string
	AnalyzeMatch    string
	AnalyzeSection  string
	AnalyzePosition string
	OptimizeSection string
	OptimizeCV      string
	CoverLetter     string
	ExtractJobMeta  string
}

// OperationLoadedPrompts holds loaded prompts for a specific operation
type OperationLoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// AllLoadedPrompts holds all loaded prompts for all operations
type AllLoadedPrompts struct {
	Global     LoadedPrompts
	Extract    OperationLoadedPrompts
	Match      OperationLoadedPrompts
	Position   OperationLoadedPrompts
	Optimize    OperationLoadedPrompts
	OptimizeCV  OperationLoadedPrompts
	CoverLetter OperationLoadedPrompts
	Meta        OperationLoadedPrompts
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation
// type. Unknown operation types fall back to the global prompts.
func GetPromptsForOperation(operationType string) OperationLoadedPrompts {
	promptsMu.RLock()
	defer promptsMu.RUnlock()

	switch operationType {
	case "extract":
		return loadedPrompts.Extract
	case "match":
		return loadedPrompts.Match
	case "position":
		return loadedPrompts.Position
	case "optimize":
		return loadedPrompts.Optimize
	case "optimizeCv":
		return loadedPrompts.OptimizeCV
	case "coverLetter":
		return loadedPrompts.CoverLetter
	case "meta":
		return loadedPrompts.Meta
	default:
		return OperationLoadedPrompts{
			SystemPrompts: loadedPrompts.Global.SystemPrompts,
			UserPrompts:   loadedPrompts.Global.UserPrompts,
		}
	}
}
