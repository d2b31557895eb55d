package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
	"github.com/careerbuddy/careerbuddy/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Analyze    *usecase.AnalyzeService
	Listings   *usecase.ListingService
	CacheCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, analyze *usecase.AnalyzeService, listings *usecase.ListingService, cacheCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Analyze: analyze, Listings: listings, CacheCheck: cacheCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// analyzeRequest mirrors the inbound analysis payload. Mode is free-form;
// unknown tags degrade to the default template.
type analyzeRequest struct {
	JobTitle       string `json:"jobTitle" validate:"required,max=300"`
	JobDescription string `json:"jobDescription" validate:"max=20000"`
	Mode           string `json:"mode" validate:"max=32"`
}

// analyzeResponse is the outbound analysis envelope. Fallback marks values
// the parser substituted rather than extracted from model output.
type analyzeResponse struct {
	Analysis       string `json:"analysis"`
	Explanation    string `json:"explanation,omitempty"`
	Fallback       bool   `json:"fallback,omitempty"`
	FallbackReason string `json:"fallbackReason,omitempty"`
}

// AnalyzeHandler serves POST /v1/analyze.
func (s *Server) AnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			if ve, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}

		res, err := s.Analyze.Analyze(r.Context(), domain.AnalysisRequest{
			JobTitle:       req.JobTitle,
			JobDescription: req.JobDescription,
			Mode:           domain.ParseMode(req.Mode),
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, analyzeResponse{
			Analysis:       res.Value,
			Explanation:    res.Explanation,
			Fallback:       res.Fallback(),
			FallbackReason: res.FallbackReason,
		})
	}
}

// JobsHandler serves GET /v1/jobs.
func (s *Server) JobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := s.Listings.Search(r.Context(), r.URL.Query().Get("keyword"))
		if err != nil {
			writeError(w, r, fmt.Errorf("job fetch: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
	}
}

// ScoredJobsHandler serves GET /v1/jobs/scored: listings with risk scores
// attached via the batch scorer.
func (s *Server) ScoredJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := s.Listings.Search(r.Context(), r.URL.Query().Get("keyword"))
		if err != nil {
			writeError(w, r, fmt.Errorf("job fetch: %w", err), nil)
			return
		}
		scored, err := s.Listings.ScoreListings(r.Context(), jobs)
		if err != nil {
			writeError(w, r, fmt.Errorf("job scoring: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": scored})
	}
}

// ReadyzHandler probes the cache backend and credential presence.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.CacheCheck != nil {
			if err := s.CacheCheck(ctx); err != nil {
				checks = append(checks, check{Name: "cache", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "cache", OK: true})
			}
		}
		if s.Cfg.GroqAPIKey == "" {
			checks = append(checks, check{Name: "provider_credential", OK: false, Details: "GROQ_API_KEY missing"})
		} else {
			checks = append(checks, check{Name: "provider_credential", OK: true})
		}
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
