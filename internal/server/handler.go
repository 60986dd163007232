package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"cvpilot/internal/ai"
	"cvpilot/internal/analysis"
	cvpilotErrors "cvpilot/internal/errors"
	"cvpilot/internal/observability"
	"cvpilot/internal/optimize"
	"cvpilot/internal/types"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
)

// requestValidator checks the validate tags on domain types carried in
// request bodies before any AI call is made.
var requestValidator = validator.New()

// statusForError maps domain error codes to HTTP status codes. Validation
// failures are the caller's fault; malformed model output is an upstream
// failure, not a server bug.
func statusForError(err error) int {
	var appErr *cvpilotErrors.AppError
	if stderrors.As(err, &appErr) {
		switch appErr.Code {
		case cvpilotErrors.ErrCodeMissingPrereq, cvpilotErrors.ErrCodeInvalidRequest:
			return http.StatusBadRequest
		case cvpilotErrors.ErrCodeMalformedScore,
			cvpilotErrors.ErrCodeIncompleteAnalysis,
			cvpilotErrors.ErrCodeInvalidSection,
			cvpilotErrors.ErrCodeIncompleteSection,
			cvpilotErrors.ErrCodeNoContent,
			cvpilotErrors.ErrCodeResponseParse:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// createAnalyzeJobHandler wraps the job requirement extraction with observability
func (s *Server) createAnalyzeJobHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvpilot.api")
		ctx, span := tracer.Start(ctx, "api.analyze_job")
		defer span.End()

		var req AnalyzeJobRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}
		if len(req.JobDescription) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("job description too large: %d chars", len(req.JobDescription))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Job description too large", fmt.Sprintf("jobDescription exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", "extract"),
		)

		extractConfig := s.AppConfig.GetExtractConfig()
		aiService, err := ai.NewService(&extractConfig, "extract", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		extractor := analysis.NewExtractor(aiService.Provider, s.Logger)

		metrics := om.GetMetrics()
		var result types.JobAnalysis
		err = metrics.TrackAIOperationWithTokens(ctx, "extract", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := extractor.Extract(ctx, req.JobDescription)
			result = output
			return &observability.AIOperationResult{Error: aiErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "job_analyzed", false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to analyze job description", err.Error(), statusForError(err))
			return
		}

		metrics.RecordBusinessMetric(ctx, "job_analyzed", true, om,
			attribute.Int("requirements_count", len(result.KeyRequirements)),
			attribute.Int("suggested_skills_count", len(result.SuggestedSkills)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("requirements_count", len(result.KeyRequirements)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createAnalyzeMatchHandler wraps the holistic CV-to-job scoring with observability
func (s *Server) createAnalyzeMatchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvpilot.api")
		ctx, span := tracer.Start(ctx, "api.analyze_match")
		defer span.End()

		var req AnalyzeMatchRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := requestValidator.Struct(req.CV); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid CV", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}
		if len(req.JobDescription) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("job description too large: %d chars", len(req.JobDescription))
			span.RecordError(err)
			writeErrorResponse(w, "Job description too large", fmt.Sprintf("jobDescription exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.Int("request.position_count", len(req.CV.Experience)),
			attribute.Bool("request.optimized_pass", req.OptimizedPass),
			attribute.String("operation", "match"),
		)

		matchConfig := s.AppConfig.GetMatchConfig()
		aiService, err := ai.NewService(&matchConfig, "match", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		gapAnalyzer := analysis.NewGapAnalyzer(aiService.Provider, s.Logger)

		metrics := om.GetMetrics()
		var result types.MatchAnalysis
		err = metrics.TrackAIOperationWithTokens(ctx, "match", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := gapAnalyzer.AnalyzeMatch(ctx, req.CV, req.JobDescription, req.OptimizedPass)
			result = output
			return &observability.AIOperationResult{Error: aiErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "match_analyzed", false, om)
			writeErrorResponse(w, "Failed to analyze match", err.Error(), statusForError(err))
			return
		}

		metrics.RecordBusinessMetric(ctx, "match_analyzed", true, om,
			attribute.Int("overall_fit", result.OverallFit.Score),
			attribute.Int("seniority_fit", result.SeniorityFit.Score),
			attribute.String("seniority_level", string(result.SeniorityFit.Level)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("overall_fit", result.OverallFit.Score),
			attribute.String("seniority_level", string(result.SeniorityFit.Level)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createAnalyzePositionHandler wraps single-position scoring with observability
func (s *Server) createAnalyzePositionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvpilot.api")
		ctx, span := tracer.Start(ctx, "api.analyze_position")
		defer span.End()

		var req AnalyzePositionRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := requestValidator.Struct(req.Position); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid position", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.Bool("request.optimized_pass", req.OptimizedPass),
			attribute.String("operation", "position"),
		)

		positionConfig := s.AppConfig.GetPositionConfig()
		aiService, err := ai.NewService(&positionConfig, "position", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		positionAnalyzer := analysis.NewPositionAnalyzer(aiService.Provider, s.Logger)

		metrics := om.GetMetrics()
		var result types.PositionAnalysis
		err = metrics.TrackAIOperationWithTokens(ctx, "position", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := positionAnalyzer.Analyze(ctx, req.Position, req.JobDescription, req.OptimizedPass)
			result = output
			return &observability.AIOperationResult{Error: aiErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "position_analyzed", false, om)
			writeErrorResponse(w, "Failed to analyze position", err.Error(), statusForError(err))
			return
		}

		metrics.RecordBusinessMetric(ctx, "position_analyzed", true, om,
			attribute.Int("position_score", result.Score))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("position_score", result.Score),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createOptimizeSectionHandler wraps single-section rewriting with observability
func (s *Server) createOptimizeSectionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvpilot.api")
		ctx, span := tracer.Start(ctx, "api.optimize_section")
		defer span.End()

		var req OptimizeSectionRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if !req.Section.Valid() {
			err := fmt.Errorf("unknown section key: %s", req.Section)
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid section", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.section", string(req.Section)),
			attribute.Int("request.history_length", len(req.History)),
			attribute.String("operation", "optimize"),
		)

		optimizeConfig := s.AppConfig.GetOptimizeConfig()
		aiService, err := ai.NewService(&optimizeConfig, "optimize", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		sectionOptimizer := optimize.NewSectionOptimizer(aiService.Provider, s.Logger)

		metrics := om.GetMetrics()
		var result types.OptimizedSection
		err = metrics.TrackAIOperationWithTokens(ctx, "optimize", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := sectionOptimizer.Optimize(ctx, req.Section, req.Content, req.JobDescription, req.History)
			result = output
			return &observability.AIOperationResult{Error: aiErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "section_optimized", false, om,
				attribute.String("section", string(req.Section)))
			writeErrorResponse(w, "Failed to optimize section", err.Error(), statusForError(err))
			return
		}

		metrics.RecordBusinessMetric(ctx, "section_optimized", true, om,
			attribute.String("section", string(req.Section)),
			attribute.Int("verification_needed_count", len(result.VerificationNeeded)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("verification_needed_count", len(result.VerificationNeeded)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createOptimizeCVHandler wraps the one-shot whole-CV rewrite with observability
func (s *Server) createOptimizeCVHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvpilot.api")
		ctx, span := tracer.Start(ctx, "api.optimize_cv")
		defer span.End()

		var req OptimizeCVRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := requestValidator.Struct(req.CV); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid CV", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}
		if len(req.JobDescription) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("job description too large: %d chars", len(req.JobDescription))
			span.RecordError(err)
			writeErrorResponse(w, "Job description too large", fmt.Sprintf("jobDescription exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.Int("request.position_count", len(req.CV.Experience)),
			attribute.String("operation", "optimizeCv"),
		)

		optimizeCVConfig := s.AppConfig.GetOptimizeCVConfig()
		aiService, err := ai.NewService(&optimizeCVConfig, "optimizeCv", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		cvOptimizer := optimize.NewCVOptimizer(aiService.Provider, s.Logger)

		metrics := om.GetMetrics()
		var result types.OptimizedCV
		err = metrics.TrackAIOperationWithTokens(ctx, "optimizeCv", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := cvOptimizer.Optimize(ctx, req.CV, req.JobDescription)
			result = output
			return &observability.AIOperationResult{Error: aiErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "cv_optimized", false, om)
			writeErrorResponse(w, "Failed to optimize CV", err.Error(), statusForError(err))
			return
		}

		metrics.RecordBusinessMetric(ctx, "cv_optimized", true, om,
			attribute.Int("suggestions_count", len(result.Suggestions)),
			attribute.Int("highlights_count", len(result.Highlights)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("suggestions_count", len(result.Suggestions)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createCoverLetterHandler wraps cover letter drafting with observability
func (s *Server) createCoverLetterHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvpilot.api")
		ctx, span := tracer.Start(ctx, "api.cover_letter")
		defer span.End()

		var req CoverLetterRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := requestValidator.Struct(req.CV); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid CV", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}
		if len(req.JobDescription) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("job description too large: %d chars", len(req.JobDescription))
			span.RecordError(err)
			writeErrorResponse(w, "Job description too large", fmt.Sprintf("jobDescription exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.Int("request.position_count", len(req.CV.Experience)),
			attribute.String("operation", "coverLetter"),
		)

		coverLetterConfig := s.AppConfig.GetCoverLetterConfig()
		aiService, err := ai.NewService(&coverLetterConfig, "coverLetter", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		letterWriter := optimize.NewLetterWriter(aiService.Provider, s.Logger)

		metrics := om.GetMetrics()
		var result types.CoverLetter
		err = metrics.TrackAIOperationWithTokens(ctx, "coverLetter", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := letterWriter.Write(ctx, req.CV, req.JobDescription)
			result = output
			return &observability.AIOperationResult{Error: aiErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "cover_letter_generated", false, om)
			writeErrorResponse(w, "Failed to generate cover letter", err.Error(), statusForError(err))
			return
		}

		metrics.RecordBusinessMetric(ctx, "cover_letter_generated", true, om,
			attribute.Int("highlights_count", len(result.Highlights)),
			attribute.Int("keywords_count", len(result.KeywordsUsed)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("letter_length", len(result.Content)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createExtractJobMetaHandler wraps title/employer extraction with observability
func (s *Server) createExtractJobMetaHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvpilot.api")
		ctx, span := tracer.Start(ctx, "api.extract_job_meta")
		defer span.End()

		var req ExtractJobMetaRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", "meta"),
		)

		metaConfig := s.AppConfig.GetMetaConfig()
		aiService, err := ai.NewService(&metaConfig, "meta", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		metaExtractor := analysis.NewMetaExtractor(aiService.Provider, s.Logger)

		metrics := om.GetMetrics()
		var result types.JobMeta
		err = metrics.TrackAIOperationWithTokens(ctx, "meta", func(ctx context.Context) *observability.AIOperationResult {
			output, aiErr := metaExtractor.Extract(ctx, req.JobDescription)
			result = output
			return &observability.AIOperationResult{Error: aiErr}
		}, om)

		// Meta extraction degrades to placeholders instead of failing, so an
		// error here is a transport or configuration problem.
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			writeErrorResponse(w, "Failed to extract job metadata", err.Error(), statusForError(err))
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("job_title", result.JobTitle),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
