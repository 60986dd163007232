package server

import (
	"time"

	"cvpilot/internal/config"
	cvpilotErrors "cvpilot/internal/errors"
	"cvpilot/internal/types"
)

// Request bodies for the API endpoints. CV payloads are validated against the
// struct tags on the domain types before any AI call is made.
type AnalyzeJobRequest struct {
	JobDescription string `json:"jobDescription"`
}

type AnalyzeMatchRequest struct {
	CV             types.CVDocument `json:"cv" validate:"required"`
	JobDescription string           `json:"jobDescription"`
	OptimizedPass  bool             `json:"optimizedPass,omitempty"`
}

type AnalyzePositionRequest struct {
	Position       types.Position `json:"position" validate:"required"`
	JobDescription string         `json:"jobDescription"`
	OptimizedPass  bool           `json:"optimizedPass,omitempty"`
}

type OptimizeSectionRequest struct {
	Section        types.SectionKey     `json:"section"`
	Content        types.SectionContent `json:"content"`
	JobDescription string               `json:"jobDescription"`
	History        []types.ChatMessage  `json:"history,omitempty"`
}

type OptimizeCVRequest struct {
	CV             types.CVDocument `json:"cv" validate:"required"`
	JobDescription string           `json:"jobDescription"`
}

type CoverLetterRequest struct {
	CV             types.CVDocument `json:"cv" validate:"required"`
	JobDescription string           `json:"jobDescription"`
}

type ExtractJobMetaRequest struct {
	JobDescription string `json:"jobDescription"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Prompt hot reload
	PromptWatcher *config.PromptWatcher

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *cvpilotErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *cvpilotErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}
