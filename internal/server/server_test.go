package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cvpilot/internal/config"
	cvpilotErrors "cvpilot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *cvpilotErrors.Logger {
	t.Helper()
	logger, err := cvpilotErrors.New("error")
	require.NoError(t, err)
	return logger
}

func newTestServer(t *testing.T, apiKeys []string) *Server {
	t.Helper()
	cfg := &config.Config{}
	return NewServer(cfg, ServerConfig{
		Host:           "localhost",
		Port:           "8080",
		Version:        "test",
		APIKeys:        apiKeys,
		MaxRequestSize: 1024,
	}, newTestLogger(t))
}

func TestAuthMiddleware(t *testing.T) {
	okHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	t.Run("no keys configured skips auth", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze-job", nil)

		s.authMiddleware(okHandler)(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing key rejected", func(t *testing.T) {
		s := newTestServer(t, []string{"secret-key-123"})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze-job", nil)

		s.authMiddleware(okHandler)(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid X-API-Key accepted", func(t *testing.T) {
		s := newTestServer(t, []string{"secret-key-123"})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze-job", nil)
		req.Header.Set("X-API-Key", "secret-key-123")

		s.authMiddleware(okHandler)(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("valid bearer token accepted", func(t *testing.T) {
		s := newTestServer(t, []string{"secret-key-123"})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze-job", nil)
		req.Header.Set("Authorization", "Bearer secret-key-123")

		s.authMiddleware(okHandler)(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid key rejected", func(t *testing.T) {
		s := newTestServer(t, []string{"secret-key-123"})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze-job", nil)
		req.Header.Set("X-API-Key", "wrong-key")

		s.authMiddleware(okHandler)(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	s := newTestServer(t, nil)

	handler := s.requestSizeLimitMiddleware()(func(w http.ResponseWriter, r *http.Request) {
		var payload AnalyzeJobRequest
		if err := parseJSONRequest(r, &payload); err != nil {
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("small body passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze-job",
			strings.NewReader(`{"jobDescription":"Go developer"}`))
		req.Header.Set("Content-Type", "application/json")

		handler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		big := `{"jobDescription":"` + strings.Repeat("x", 2048) + `"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze-job", strings.NewReader(big))
		req.Header.Set("Content-Type", "application/json")

		handler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "too large")
	})
}

func TestParseJSONRequest(t *testing.T) {
	t.Run("rejects wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analyze-job",
			strings.NewReader(`{"jobDescription":"x"}`))
		req.Header.Set("Content-Type", "text/plain")

		var payload AnalyzeJobRequest
		err := parseJSONRequest(req, &payload)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "content-type")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analyze-job",
			strings.NewReader(`{"jobDescription":`))
		req.Header.Set("Content-Type", "application/json")

		var payload AnalyzeJobRequest
		err := parseJSONRequest(req, &payload)
		assert.Error(t, err)
	})

	t.Run("parses valid request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analyze-job",
			strings.NewReader(`{"jobDescription":"Senior Go developer"}`))
		req.Header.Set("Content-Type", "application/json")

		var payload AnalyzeJobRequest
		err := parseJSONRequest(req, &payload)
		require.NoError(t, err)
		assert.Equal(t, "Senior Go developer", payload.JobDescription)
	})
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "missing prerequisite is a client error",
			err:  cvpilotErrors.NewValidationError(cvpilotErrors.ErrCodeMissingPrereq, "no job description", nil),
			want: http.StatusBadRequest,
		},
		{
			name: "malformed score is an upstream error",
			err:  cvpilotErrors.NewAnalysisError(cvpilotErrors.ErrCodeMalformedScore, "score out of range", nil),
			want: http.StatusBadGateway,
		},
		{
			name: "missing generated content is an upstream error",
			err:  cvpilotErrors.NewOptimizationError(cvpilotErrors.ErrCodeNoContent, "empty rewrite", nil),
			want: http.StatusBadGateway,
		},
		{
			name: "unknown error is internal",
			err:  cvpilotErrors.NewInternalError("SOMETHING_ELSE", "boom", nil),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	logger := newTestLogger(t)

	t.Run("burst then throttled", func(t *testing.T) {
		rl := NewRateLimiter(60, time.Minute, 2, logger)
		defer rl.Close()

		assert.True(t, rl.Allow("ip:10.0.0.1"))
		assert.True(t, rl.Allow("ip:10.0.0.1"))
		assert.False(t, rl.Allow("ip:10.0.0.1"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl := NewRateLimiter(60, time.Minute, 1, logger)
		defer rl.Close()

		assert.True(t, rl.Allow("ip:10.0.0.1"))
		assert.False(t, rl.Allow("ip:10.0.0.1"))
		assert.True(t, rl.Allow("ip:10.0.0.2"))
	})

	t.Run("stats reflect configuration", func(t *testing.T) {
		rl := NewRateLimiter(120, time.Minute, 5, logger)
		defer rl.Close()

		rl.Allow("api:key-a")
		stats := rl.GetStats()
		assert.Equal(t, 1, stats["active_limiters"])
		assert.InDelta(t, 2.0, stats["rate_per_second"], 0.001)
		assert.Equal(t, 5, stats["burst_capacity"])
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr fallback",
			remoteAddr: "192.168.1.10:54321",
			want:       "192.168.1.10",
		},
		{
			name:       "x-forwarded-for wins",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip used when xff absent",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
		{
			name:       "invalid xff entries skipped",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip, 203.0.113.9"},
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestGetRateLimitKey(t *testing.T) {
	t.Run("api key preferred", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "key-123")
		assert.Equal(t, "api:key-123", rateLimitKey(req, true, true))
	})

	t.Run("falls back to ip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.10:54321"
		assert.Equal(t, "ip:192.168.1.10", rateLimitKey(req, true, true))
	})

	t.Run("disabled returns empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, "", rateLimitKey(req, false, false))
	})
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "12345678****", maskAPIKey("123456789abcdef"))
}
