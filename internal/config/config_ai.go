package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// fallbackString fills dst from src when dst is empty
func fallbackString(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// GetExtractConfig returns the AI configuration for requirement extraction with
// fallback to global config
func (c *Config) GetExtractConfig() OperationAIConfig {
	config := c.AI.Extract
	c.applyOperationDefaults(&config)

	global := &c.AI.CustomPrompts
	fallbackString(&config.CustomPrompts.SystemPrompts.ExtractJob, global.SystemPrompts.ExtractJob)
	fallbackString(&config.CustomPrompts.SystemPrompts.ExtractJobFile, global.SystemPrompts.ExtractJobFile)
	fallbackString(&config.CustomPrompts.UserPrompts.ExtractExplicit, global.UserPrompts.ExtractExplicit)
	fallbackString(&config.CustomPrompts.UserPrompts.ExtractExplicitFile, global.UserPrompts.ExtractExplicitFile)
	fallbackString(&config.CustomPrompts.UserPrompts.ExtractInferred, global.UserPrompts.ExtractInferred)
	fallbackString(&config.CustomPrompts.UserPrompts.ExtractInferredFile, global.UserPrompts.ExtractInferredFile)

	return config
}

// GetMatchConfig returns the AI configuration for match and per-section
// analysis with fallback to global config
func (c *Config) GetMatchConfig() OperationAIConfig {
	config := c.AI.Match
	c.applyOperationDefaults(&config)

	global := &c.AI.CustomPrompts
	fallbackString(&config.CustomPrompts.SystemPrompts.AnalyzeMatch, global.SystemPrompts.AnalyzeMatch)
	fallbackString(&config.CustomPrompts.SystemPrompts.AnalyzeMatchFile, global.SystemPrompts.AnalyzeMatchFile)
	fallbackString(&config.CustomPrompts.SystemPrompts.AnalyzeSection, global.SystemPrompts.AnalyzeSection)
	fallbackString(&config.CustomPrompts.SystemPrompts.AnalyzeSectionFile, global.SystemPrompts.AnalyzeSectionFile)
	fallbackString(&config.CustomPrompts.UserPrompts.AnalyzeMatch, global.UserPrompts.AnalyzeMatch)
	fallbackString(&config.CustomPrompts.UserPrompts.AnalyzeMatchFile, global.UserPrompts.AnalyzeMatchFile)
	fallbackString(&config.CustomPrompts.UserPrompts.AnalyzeSection, global.UserPrompts.AnalyzeSection)
	fallbackString(&config.CustomPrompts.UserPrompts.AnalyzeSectionFile, global.UserPrompts.AnalyzeSectionFile)

	return config
}

// GetPositionConfig returns the AI configuration for single-position analysis
// with fallback to global config
func (c *Config) GetPositionConfig() OperationAIConfig {
	config := c.AI.Position
	c.applyOperationDefaults(&config)

	global := &c.AI.CustomPrompts
	fallbackString(&config.CustomPrompts.SystemPrompts.AnalyzePosition, global.SystemPrompts.AnalyzePosition)
	fallbackString(&config.CustomPrompts.SystemPrompts.AnalyzePositionFile, global.SystemPrompts.AnalyzePositionFile)
	fallbackString(&config.CustomPrompts.UserPrompts.AnalyzePosition, global.UserPrompts.AnalyzePosition)
	fallbackString(&config.CustomPrompts.UserPrompts.AnalyzePositionFile, global.UserPrompts.AnalyzePositionFile)

	return config
}

// GetOptimizeConfig returns the AI configuration for section rewrites with
// fallback to global config
func (c *Config) GetOptimizeConfig() OperationAIConfig {
	config := c.AI.Optimize
	c.applyOperationDefaults(&config)

	global := &c.AI.CustomPrompts
	fallbackString(&config.CustomPrompts.SystemPrompts.OptimizeSection, global.SystemPrompts.OptimizeSection)
	fallbackString(&config.CustomPrompts.SystemPrompts.OptimizeSectionFile, global.SystemPrompts.OptimizeSectionFile)
	fallbackString(&config.CustomPrompts.UserPrompts.OptimizeSection, global.UserPrompts.OptimizeSection)
	fallbackString(&config.CustomPrompts.UserPrompts.OptimizeSectionFile, global.UserPrompts.OptimizeSectionFile)

	return config
}

// GetOptimizeCVConfig returns the AI configuration for the whole-document
// rewrite with fallback to global config
func (c *Config) GetOptimizeCVConfig() OperationAIConfig {
	config := c.AI.OptimizeCv
	c.applyOperationDefaults(&config)

	global := &c.AI.CustomPrompts
	fallbackString(&config.CustomPrompts.SystemPrompts.OptimizeCV, global.SystemPrompts.OptimizeCV)
	fallbackString(&config.CustomPrompts.SystemPrompts.OptimizeCVFile, global.SystemPrompts.OptimizeCVFile)
	fallbackString(&config.CustomPrompts.UserPrompts.OptimizeCV, global.UserPrompts.OptimizeCV)
	fallbackString(&config.CustomPrompts.UserPrompts.OptimizeCVFile, global.UserPrompts.OptimizeCVFile)

	return config
}

// GetCoverLetterConfig returns the AI configuration for cover letter drafting
// with fallback to global config
func (c *Config) GetCoverLetterConfig() OperationAIConfig {
	config := c.AI.CoverLetter
	c.applyOperationDefaults(&config)

	global := &c.AI.CustomPrompts
	fallbackString(&config.CustomPrompts.SystemPrompts.CoverLetter, global.SystemPrompts.CoverLetter)
	fallbackString(&config.CustomPrompts.SystemPrompts.CoverLetterFile, global.SystemPrompts.CoverLetterFile)
	fallbackString(&config.CustomPrompts.UserPrompts.CoverLetter, global.UserPrompts.CoverLetter)
	fallbackString(&config.CustomPrompts.UserPrompts.CoverLetterFile, global.UserPrompts.CoverLetterFile)

	return config
}

// GetMetaConfig returns the AI configuration for job meta extraction with
// fallback to global config
func (c *Config) GetMetaConfig() OperationAIConfig {
	config := c.AI.Meta
	c.applyOperationDefaults(&config)

	global := &c.AI.CustomPrompts
	fallbackString(&config.CustomPrompts.SystemPrompts.ExtractJobMeta, global.SystemPrompts.ExtractJobMeta)
	fallbackString(&config.CustomPrompts.SystemPrompts.ExtractJobMetaFile, global.SystemPrompts.ExtractJobMetaFile)
	fallbackString(&config.CustomPrompts.UserPrompts.ExtractJobMeta, global.UserPrompts.ExtractJobMeta)
	fallbackString(&config.CustomPrompts.UserPrompts.ExtractJobMetaFile, global.UserPrompts.ExtractJobMetaFile)

	return config
}

// GetLoadedGlobalPrompts returns a copy of the loaded global prompts
func (c *Config) GetLoadedGlobalPrompts() LoadedPrompts {
	promptsMu.RLock()
	defer promptsMu.RUnlock()
	return loadedPrompts.Global
}
