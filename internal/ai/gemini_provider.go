package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"cvpilot/internal/config"
	cvpilotErrors "cvpilot/internal/errors"
	"cvpilot/internal/schemas"
	"cvpilot/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *cvpilotErrors.Logger
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *cvpilotErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, cvpilotErrors.NewAIError(cvpilotErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	circuitBreaker := NewAICircuitBreaker(operationType, cfg, logger)
	modelBreaker := NewModelCircuitBreaker(operationType, cfg, logger)

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: circuitBreaker,
		modelBreaker:   modelBreaker,
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, getAIModelCheckTimeout())
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on auth failures, invalid input, etc.
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// executeAIOperation is a generic helper to run AI operations with common
// tracing, circuit breaker, retry and response validation logic. The response
// text is checked against the named JSON schema before it is decoded; a
// mismatch is surfaced through schemaFailure so each operation keeps its own
// error semantics. Retries never apply past this point: a schema-invalid
// response is a contract violation, not a transient fault.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	schemaName string,
	schemaFailure func(error) error,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("cvpilot.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, cvpilotErrors.NewAIError(cvpilotErrors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		emptyErr := cvpilotErrors.NewAIError(cvpilotErrors.ErrCodeNoContent,
			"Model returned no content for "+operationName, nil)
		span.RecordError(emptyErr)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, emptyErr
	}

	if err := schemas.Validate(schemaName, []byte(text)); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, schemaFailure(err)
	}

	if err := json.Unmarshal([]byte(text), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, schemaFailure(err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// ExtractJob implements Provider for one requirement extraction pass
func (g *GeminiProvider) ExtractJob(ctx context.Context, input ExtractJobInput) (types.JobAnalysis, *TokenUsage, error) {
	promptType := "extractExplicit"
	if input.Pass == types.RequirementInferred {
		promptType = "extractInferred"
	}

	systemPrompt := g.getSystemPrompt("extract")
	userPrompt := applyLanguage(fmt.Sprintf(g.getUserPrompt(promptType), input.JobDescription), input.Language)

	output, tokenUsage, err := executeAIOperation[types.JobAnalysis](
		g,
		ctx,
		"extract_job",
		userPrompt,
		systemPrompt,
		g.buildExtractConfig(),
		schemas.JobAnalysis,
		func(cause error) error {
			return cvpilotErrors.NewAIError(cvpilotErrors.ErrCodeResponseParse,
				"Extraction pass returned malformed output", cause)
		},
		attribute.String("extract.pass", string(input.Pass)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.JobAnalysis{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.key_requirements", len(output.KeyRequirements)),
			attribute.Int("output.suggested_skills", len(output.SuggestedSkills)),
		)
	}

	return output, tokenUsage, nil
}

// AnalyzeMatch implements Provider for full CV scoring
func (g *GeminiProvider) AnalyzeMatch(ctx context.Context, input AnalyzeMatchInput) (types.MatchAnalysis, *TokenUsage, error) {
	cvText, err := formatCV(input.CV)
	if err != nil {
		return types.MatchAnalysis{}, nil, err
	}

	systemPrompt := g.getSystemPrompt("match")
	if input.OptimizedPass {
		systemPrompt = g.getSystemPrompt("section")
	}
	userPrompt := applyLanguage(fmt.Sprintf(g.getUserPrompt("match"), cvText, input.JobDescription), input.Language)

	output, tokenUsage, err := executeAIOperation[types.MatchAnalysis](
		g,
		ctx,
		"analyze_match",
		userPrompt,
		systemPrompt,
		g.buildMatchConfig(),
		schemas.MatchAnalysis,
		func(cause error) error {
			return cvpilotErrors.NewAnalysisError(cvpilotErrors.ErrCodeMalformedScore,
				"Match analysis violated the score contract", cause)
		},
		attribute.Bool("analyze.optimized_pass", input.OptimizedPass),
		attribute.Int("input.cv_length", len(cvText)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.MatchAnalysis{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("overall_fit.score", output.OverallFit.Score),
			attribute.Int("seniority_fit.score", output.SeniorityFit.Score),
			attribute.String("seniority_fit.level", string(output.SeniorityFit.Level)),
		)
	}

	return output, tokenUsage, nil
}

// AnalyzeSection implements Provider for re-scoring a single text section
func (g *GeminiProvider) AnalyzeSection(ctx context.Context, input AnalyzeSectionInput) (types.GapAnalysis, *TokenUsage, error) {
	systemPrompt := g.getSystemPrompt("section")
	userPrompt := applyLanguage(
		fmt.Sprintf(g.getUserPrompt("section"), string(input.Section), input.Content, input.JobDescription),
		input.Language)

	output, tokenUsage, err := executeAIOperation[types.GapAnalysis](
		g,
		ctx,
		"analyze_section",
		userPrompt,
		systemPrompt,
		g.buildSectionConfig(),
		schemas.GapAnalysis,
		func(cause error) error {
			return cvpilotErrors.NewAnalysisError(cvpilotErrors.ErrCodeMalformedScore,
				"Section analysis violated the score contract", cause)
		},
		attribute.String("analyze.section", string(input.Section)),
		attribute.Bool("analyze.optimized_pass", input.OptimizedPass),
		attribute.Int("input.section_length", len(input.Content)),
	)
	if err != nil {
		return types.GapAnalysis{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("section.score", output.Score))
	}

	return output, tokenUsage, nil
}

// AnalyzePosition implements Provider for scoring one experience entry
func (g *GeminiProvider) AnalyzePosition(ctx context.Context, input AnalyzePositionInput) (types.PositionAnalysis, *TokenUsage, error) {
	positionText, err := formatPosition(input.Position)
	if err != nil {
		return types.PositionAnalysis{}, nil, err
	}

	systemPrompt := g.getSystemPrompt("position")
	userPrompt := applyLanguage(
		fmt.Sprintf(g.getUserPrompt("position"), positionText, input.JobDescription),
		input.Language)

	output, tokenUsage, err := executeAIOperation[types.PositionAnalysis](
		g,
		ctx,
		"analyze_position",
		userPrompt,
		systemPrompt,
		g.buildPositionConfig(),
		schemas.PositionAnalysis,
		func(cause error) error {
			return cvpilotErrors.NewAnalysisError(cvpilotErrors.ErrCodeMalformedScore,
				"Position analysis violated the score contract", cause)
		},
		attribute.Bool("analyze.optimized_pass", input.OptimizedPass),
		attribute.Int("input.position_length", len(positionText)),
	)
	if err != nil {
		return types.PositionAnalysis{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("position.score", output.Score))
	}

	return output, tokenUsage, nil
}

// OptimizeSection implements Provider for rewriting one section
func (g *GeminiProvider) OptimizeSection(ctx context.Context, input OptimizeSectionInput) (types.OptimizedSection, *TokenUsage, error) {
	contentText, err := formatSectionContent(input.Content)
	if err != nil {
		return types.OptimizedSection{}, nil, err
	}

	var genaiConfig *genai.GenerateContentConfig
	if input.Content.IsExperience() {
		genaiConfig = g.buildOptimizeExperienceConfig()
	} else {
		genaiConfig = g.buildOptimizeTextConfig()
	}

	systemPrompt := g.getSystemPrompt("optimize")
	userPrompt := applyLanguage(
		fmt.Sprintf(g.getUserPrompt("optimize"),
			string(input.Section), contentText, input.JobDescription, formatHistory(input.History)),
		input.Language)

	output, tokenUsage, err := executeAIOperation[types.OptimizedSection](
		g,
		ctx,
		"optimize_section",
		userPrompt,
		systemPrompt,
		genaiConfig,
		schemas.OptimizedSection,
		func(cause error) error {
			return cvpilotErrors.NewOptimizationError(cvpilotErrors.ErrCodeInvalidSection,
				"Optimizer output does not match the section shape", cause)
		},
		attribute.String("optimize.section", string(input.Section)),
		attribute.Int("optimize.history_turns", len(input.History)),
		attribute.Int("input.section_length", len(contentText)),
	)
	if err != nil {
		return types.OptimizedSection{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.verification_needed", len(output.VerificationNeeded)),
		)
	}

	return output, tokenUsage, nil
}

// OptimizeCV implements Provider for the one-shot whole-document rewrite
func (g *GeminiProvider) OptimizeCV(ctx context.Context, input OptimizeCVInput) (types.OptimizedCV, *TokenUsage, error) {
	cvText, err := formatCV(input.CV)
	if err != nil {
		return types.OptimizedCV{}, nil, err
	}

	systemPrompt := g.getSystemPrompt("optimizeCv")
	userPrompt := applyLanguage(
		fmt.Sprintf(g.getUserPrompt("optimizeCv"), cvText, input.JobDescription),
		input.Language)

	output, tokenUsage, err := executeAIOperation[types.OptimizedCV](
		g,
		ctx,
		"optimize_cv",
		userPrompt,
		systemPrompt,
		g.buildOptimizeCVConfig(),
		schemas.OptimizedCV,
		func(cause error) error {
			return cvpilotErrors.NewOptimizationError(cvpilotErrors.ErrCodeInvalidSection,
				"Optimizer output does not match the document shape", cause)
		},
		attribute.Int("input.cv_length", len(cvText)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.OptimizedCV{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.suggestions", len(output.Suggestions)),
			attribute.Int("output.highlights", len(output.Highlights)),
		)
	}

	return output, tokenUsage, nil
}

// GenerateCoverLetter implements Provider for application letter drafting
func (g *GeminiProvider) GenerateCoverLetter(ctx context.Context, input GenerateCoverLetterInput) (types.CoverLetter, *TokenUsage, error) {
	cvText, err := formatCV(input.CV)
	if err != nil {
		return types.CoverLetter{}, nil, err
	}

	systemPrompt := g.getSystemPrompt("coverLetter")
	userPrompt := applyLanguage(
		fmt.Sprintf(g.getUserPrompt("coverLetter"), cvText, input.JobDescription),
		input.Language)

	output, tokenUsage, err := executeAIOperation[types.CoverLetter](
		g,
		ctx,
		"generate_cover_letter",
		userPrompt,
		systemPrompt,
		g.buildCoverLetterConfig(),
		schemas.CoverLetter,
		func(cause error) error {
			return cvpilotErrors.NewAIError(cvpilotErrors.ErrCodeResponseParse,
				"Cover letter generation returned malformed output", cause)
		},
		attribute.Int("input.cv_length", len(cvText)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.CoverLetter{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.letter_length", len(output.Content)),
			attribute.Int("output.highlights", len(output.Highlights)),
		)
	}

	return output, tokenUsage, nil
}

// ExtractJobMeta implements Provider for title/employer extraction
func (g *GeminiProvider) ExtractJobMeta(ctx context.Context, input ExtractJobMetaInput) (types.JobMeta, *TokenUsage, error) {
	systemPrompt := g.getSystemPrompt("meta")
	userPrompt := fmt.Sprintf(g.getUserPrompt("meta"), input.JobDescription)

	output, tokenUsage, err := executeAIOperation[types.JobMeta](
		g,
		ctx,
		"extract_job_meta",
		userPrompt,
		systemPrompt,
		g.buildMetaConfig(),
		schemas.JobMeta,
		func(cause error) error {
			return cvpilotErrors.NewAIError(cvpilotErrors.ErrCodeResponseParse,
				"Job meta extraction returned malformed output", cause)
		},
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.JobMeta{}, nil, err
	}

	return output, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	aiHealthy := g.circuitBreaker.IsHealthy()
	modelHealthy := g.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = aiHealthy && modelHealthy

	return stats
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// requirementListSchema is the shared shape for extracted requirement arrays
func requirementListSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"text":   {Type: genai.TypeString},
				"type":   {Type: genai.TypeString, Enum: []string{"explicit", "inferred"}},
				"source": {Type: genai.TypeString},
			},
			Required: []string{"text", "type"},
		},
	}
}

// gapRubricSchema is the shared shape for one scored rubric
func gapRubricSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"gaps":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"strengths": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"score":     {Type: genai.TypeInteger},
			"questions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"gaps", "strengths", "score", "questions"},
	}
}

// positionListSchema is the shared shape for rewritten experience entries
func positionListSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"company":     {Type: genai.TypeString},
				"title":       {Type: genai.TypeString},
				"startDate":   {Type: genai.TypeString},
				"endDate":     {Type: genai.TypeString},
				"location":    {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
			},
			Required: []string{"company", "title", "startDate", "endDate", "description"},
		},
	}
}

// buildExtractConfig creates the schema for one extraction pass
func (g *GeminiProvider) buildExtractConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":           {Type: genai.TypeString},
				"keyRequirements": requirementListSchema(),
				"suggestedSkills": requirementListSchema(),
				"culturalFit": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"explicit": {Type: genai.TypeString},
						"inferred": {Type: genai.TypeString},
					},
					Required: []string{"explicit", "inferred"},
				},
				"recommendedHighlights": requirementListSchema(),
			},
			Required: []string{"title", "keyRequirements", "suggestedSkills", "culturalFit", "recommendedHighlights"},
		},
	}

	g.applyTemperature(config)
	return config
}

// buildMatchConfig creates the schema for full CV scoring
func (g *GeminiProvider) buildMatchConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"overallFit": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"score":       {Type: genai.TypeInteger},
						"explanation": {Type: genai.TypeString},
					},
					Required: []string{"score", "explanation"},
				},
				"seniorityFit": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"score":       {Type: genai.TypeInteger},
						"level":       {Type: genai.TypeString, Enum: []string{"under-qualified", "well-matched", "over-qualified"}},
						"explanation": {Type: genai.TypeString},
						"concerns":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					},
					Required: []string{"score", "level", "explanation", "concerns"},
				},
				"gapAnalysis": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"summary":    gapRubricSchema(),
						"skills":     gapRubricSchema(),
						"experience": gapRubricSchema(),
						"education":  gapRubricSchema(),
					},
					Required: []string{"summary", "skills", "experience", "education"},
				},
				"suggestedFocus": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"overallFit", "seniorityFit", "gapAnalysis", "suggestedFocus"},
		},
	}

	g.applyTemperature(config)
	return config
}

// buildSectionConfig creates the schema for single-section scoring
func (g *GeminiProvider) buildSectionConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   gapRubricSchema(),
	}

	g.applyTemperature(config)
	return config
}

// buildPositionConfig creates the schema for single-position scoring
func (g *GeminiProvider) buildPositionConfig() *genai.GenerateContentConfig {
	schema := gapRubricSchema()
	schema.Properties["relevance"] = &genai.Schema{Type: genai.TypeString}
	schema.Required = append(schema.Required, "relevance")

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	g.applyTemperature(config)
	return config
}

// buildOptimizeTextConfig creates the schema for rewriting a text section
func (g *GeminiProvider) buildOptimizeTextConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"optimizedContent":   {Type: genai.TypeString},
				"explanation":        {Type: genai.TypeString},
				"verificationNeeded": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"optimizedContent", "explanation", "verificationNeeded"},
		},
	}

	g.applyTemperature(config)
	return config
}

// buildOptimizeExperienceConfig creates the schema for rewriting experience entries
func (g *GeminiProvider) buildOptimizeExperienceConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"optimizedContent":   positionListSchema(),
				"explanation":        {Type: genai.TypeString},
				"verificationNeeded": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"optimizedContent", "explanation", "verificationNeeded"},
		},
	}

	g.applyTemperature(config)
	return config
}

// buildOptimizeCVConfig creates the schema for the whole-document rewrite
func (g *GeminiProvider) buildOptimizeCVConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"content": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":         {Type: genai.TypeString},
						"contact":      {Type: genai.TypeString},
						"summary":      {Type: genai.TypeString},
						"skills":       {Type: genai.TypeString},
						"experience":   positionListSchema(),
						"education":    {Type: genai.TypeString},
						"languages":    {Type: genai.TypeString},
						"achievements": {Type: genai.TypeString},
						"development":  {Type: genai.TypeString},
						"memberships":  {Type: genai.TypeString},
					},
					Required: []string{"name", "contact", "summary", "skills", "experience", "education", "languages", "achievements", "development", "memberships"},
				},
				"suggestions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"highlights":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"content", "suggestions", "highlights"},
		},
	}

	g.applyTemperature(config)
	return config
}

// buildCoverLetterConfig creates the schema for application letter drafting
func (g *GeminiProvider) buildCoverLetterConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"content":      {Type: genai.TypeString},
				"highlights":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"keywordsUsed": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required: []string{"content", "highlights", "keywordsUsed"},
		},
	}

	g.applyTemperature(config)
	return config
}

// buildMetaConfig creates the schema for title/employer extraction
func (g *GeminiProvider) buildMetaConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"jobTitle": {Type: genai.TypeString},
				"employer": {Type: genai.TypeString},
			},
			Required: []string{"jobTitle", "employer"},
		},
	}

	g.applyTemperature(config)
	return config
}

// applyTemperature copies the operation temperature onto the request. Zero is
// a meaningful value here (deterministic scoring), so the pointer is applied
// whenever it is set.
func (g *GeminiProvider) applyTemperature(config *genai.GenerateContentConfig) {
	if g.config.Temperature != nil {
		config.Temperature = g.config.Temperature
	}
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// getAIModelCheckTimeout returns the configured AI model check timeout
func getAIModelCheckTimeout() time.Duration {
	return 10 * time.Second
}

// formatCV renders the document as indented JSON for prompt embedding
func formatCV(cv types.CVDocument) (string, error) {
	data, err := json.MarshalIndent(cv, "", "  ")
	if err != nil {
		return "", cvpilotErrors.NewInternalError(cvpilotErrors.ErrCodeInvalidFormat,
			"Failed to serialize CV for prompt", err)
	}
	return string(data), nil
}

// formatPosition renders one experience entry as indented JSON
func formatPosition(position types.Position) (string, error) {
	data, err := json.MarshalIndent(position, "", "  ")
	if err != nil {
		return "", cvpilotErrors.NewInternalError(cvpilotErrors.ErrCodeInvalidFormat,
			"Failed to serialize position for prompt", err)
	}
	return string(data), nil
}

// formatSectionContent renders section content for prompt embedding
func formatSectionContent(content types.SectionContent) (string, error) {
	if !content.IsExperience() {
		return content.Text, nil
	}
	data, err := json.MarshalIndent(content.Positions, "", "  ")
	if err != nil {
		return "", cvpilotErrors.NewInternalError(cvpilotErrors.ErrCodeInvalidFormat,
			"Failed to serialize section content for prompt", err)
	}
	return string(data), nil
}

// formatHistory renders the refinement conversation for prompt embedding
func formatHistory(history []types.ChatMessage) string {
	if len(history) == 0 {
		return "(no conversation yet)"
	}

	var sb strings.Builder
	for i, msg := range history {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch msg.Role {
		case types.RoleUser:
			sb.WriteString("Candidate: ")
		case types.RoleAssistant:
			sb.WriteString("Writer: ")
		default:
			sb.WriteString(string(msg.Role) + ": ")
		}
		sb.WriteString(msg.Content)
	}
	return sb.String()
}

// languageNames maps detected language codes to the names used in prompts.
var languageNames = map[string]string{
	"de": "German",
	"en": "English",
}

// applyLanguage appends a response-language instruction for non-English input
func applyLanguage(prompt, language string) string {
	if language == "" || language == "en" {
		return prompt
	}
	name, ok := languageNames[language]
	if !ok {
		name = language
	}
	return prompt + fmt.Sprintf(languageInstruction, name, name)
}

// getSystemPrompt returns the appropriate system prompt
func (g *GeminiProvider) getSystemPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	var configSystemPrompts *config.SystemPrompts
	if configPrompts != nil {
		configSystemPrompts = &configPrompts.SystemPrompts
	} else {
		configSystemPrompts = &config.SystemPrompts{}
	}

	switch promptType {
	case "extract", "extractExplicit", "extractInferred":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ExtractJob,
			configSystemPrompts.ExtractJob,
			DefaultSystemPrompts.ExtractJob,
		)
	case "match":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.AnalyzeMatch,
			configSystemPrompts.AnalyzeMatch,
			DefaultSystemPrompts.AnalyzeMatch,
		)
	case "section":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.AnalyzeSection,
			configSystemPrompts.AnalyzeSection,
			DefaultSystemPrompts.AnalyzeSection,
		)
	case "position":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.AnalyzePosition,
			configSystemPrompts.AnalyzePosition,
			DefaultSystemPrompts.AnalyzePosition,
		)
	case "optimize":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.OptimizeSection,
			configSystemPrompts.OptimizeSection,
			DefaultSystemPrompts.OptimizeSection,
		)
	case "optimizeCv":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.OptimizeCV,
			configSystemPrompts.OptimizeCV,
			DefaultSystemPrompts.OptimizeCV,
		)
	case "coverLetter":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.CoverLetter,
			configSystemPrompts.CoverLetter,
			DefaultSystemPrompts.CoverLetter,
		)
	case "meta":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ExtractJobMeta,
			configSystemPrompts.ExtractJobMeta,
			DefaultSystemPrompts.ExtractJobMeta,
		)
	default:
		return ""
	}
}

// getUserPrompt returns the appropriate user prompt template
func (g *GeminiProvider) getUserPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	var configUserPrompts *config.UserPrompts
	if configPrompts != nil {
		configUserPrompts = &configPrompts.UserPrompts
	} else {
		configUserPrompts = &config.UserPrompts{}
	}

	switch promptType {
	case "extractExplicit":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ExtractExplicit,
			configUserPrompts.ExtractExplicit,
			DefaultUserPrompts.ExtractJobExplicit,
		)
	case "extractInferred":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ExtractInferred,
			configUserPrompts.ExtractInferred,
			DefaultUserPrompts.ExtractJobInferred,
		)
	case "match":
		return resolvePrompt(
			loadedPrompts.UserPrompts.AnalyzeMatch,
			configUserPrompts.AnalyzeMatch,
			DefaultUserPrompts.AnalyzeMatch,
		)
	case "section":
		return resolvePrompt(
			loadedPrompts.UserPrompts.AnalyzeSection,
			configUserPrompts.AnalyzeSection,
			DefaultUserPrompts.AnalyzeSection,
		)
	case "position":
		return resolvePrompt(
			loadedPrompts.UserPrompts.AnalyzePosition,
			configUserPrompts.AnalyzePosition,
			DefaultUserPrompts.AnalyzePosition,
		)
	case "optimize":
		return resolvePrompt(
			loadedPrompts.UserPrompts.OptimizeSection,
			configUserPrompts.OptimizeSection,
			DefaultUserPrompts.OptimizeSection,
		)
	case "optimizeCv":
		return resolvePrompt(
			loadedPrompts.UserPrompts.OptimizeCV,
			configUserPrompts.OptimizeCV,
			DefaultUserPrompts.OptimizeCV,
		)
	case "coverLetter":
		return resolvePrompt(
			loadedPrompts.UserPrompts.CoverLetter,
			configUserPrompts.CoverLetter,
			DefaultUserPrompts.CoverLetter,
		)
	case "meta":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ExtractJobMeta,
			configUserPrompts.ExtractJobMeta,
			DefaultUserPrompts.ExtractJobMeta,
		)
	default:
		return ""
	}
}

// promptOperation maps a prompt type to the config operation that owns it
func promptOperation(promptType string) string {
	switch promptType {
	case "extract", "extractExplicit", "extractInferred":
		return "extract"
	case "match", "section":
		return "match"
	case "position":
		return "position"
	case "optimize":
		return "optimize"
	case "optimizeCv":
		return "optimizeCv"
	case "coverLetter":
		return "coverLetter"
	case "meta":
		return "meta"
	default:
		return promptType
	}
}

// getPrompts returns the appropriate prompts for the operation, prioritizing loaded content over config
func (g *GeminiProvider) getPrompts(promptType string) (config.OperationLoadedPrompts, *config.PromptConfig) {
	loadedPrompts := config.GetPromptsForOperation(promptOperation(promptType))
	configPrompts := &g.config.CustomPrompts
	return loadedPrompts, configPrompts
}

// resolvePrompt selects the correct prompt string based on a clear priority order:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. A hardcoded default prompt.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
