// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/careerbuddy/careerbuddy/internal/adapter/ai/parse"
	"github.com/careerbuddy/careerbuddy/internal/adapter/ai/prompt"
	"github.com/careerbuddy/careerbuddy/internal/adapter/observability"
	"github.com/careerbuddy/careerbuddy/internal/cache"
	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
)

// AnalyzeService orchestrates one analysis: cache check, in-flight
// deduplication, prompt build, gateway dispatch, parse, cache write.
//
// All state is service-scoped; tests instantiate isolated instances.
type AnalyzeService struct {
	cfg     config.Config
	ai      domain.AIClient
	cache   domain.AnalysisCache
	prompts prompt.Builder
	parser  parse.Parser
	group   singleflight.Group
}

// NewAnalyzeService constructs an AnalyzeService with its dependencies.
func NewAnalyzeService(cfg config.Config, ai domain.AIClient, c domain.AnalysisCache) *AnalyzeService {
	return &AnalyzeService{
		cfg:     cfg,
		ai:      ai,
		cache:   c,
		prompts: prompt.New(cfg),
		parser:  parse.New(cfg),
	}
}

// TTLFor returns the cache lifetime for a mode. Course catalogs and company
// reputations change slowly; autocomplete relevance tracks trending searches;
// job-risk scoring and chat sit in between.
func (s *AnalyzeService) TTLFor(mode domain.Mode) time.Duration {
	switch mode {
	case domain.ModeCourse, domain.ModeCompanyScore:
		return s.cfg.CacheTTLLong
	case domain.ModeAutocomplete:
		return s.cfg.CacheTTLAutocomplete
	default:
		return s.cfg.CacheTTLDefault
	}
}

// Analyze resolves one request. Concurrent callers with the same fingerprint
// share a single upstream call and observe the same result or failure.
func (s *AnalyzeService) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	req.Mode = domain.ParseMode(string(req.Mode))
	key := cache.Key(req)

	if v, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.Warn("cache read failed", slog.Any("error", err))
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues(string(req.Mode)).Inc()
		return v, nil
	}
	observability.CacheMissesTotal.WithLabelValues(string(req.Mode)).Inc()

	v, err, shared := s.group.Do(key, func() (any, error) {
		// Another caller may have populated the cache while this one
		// waited on the flight group.
		if v, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return v, nil
		}
		return s.fetch(ctx, req, key)
	})
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if shared {
		slog.Debug("request coalesced with in-flight call", slog.String("key", key))
	}
	return v.(domain.AnalysisResult), nil
}

// fetch performs the upstream round trip and caches the parsed result.
func (s *AnalyzeService) fetch(ctx context.Context, req domain.AnalysisRequest, key string) (domain.AnalysisResult, error) {
	chatReq := s.prompts.Build(req)
	raw, err := s.ai.ChatCompletion(ctx, chatReq)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("op=analyze: %w", err)
	}

	subject := req.JobTitle + " " + req.JobDescription
	res := s.parser.Parse(req.Mode, subject, raw)

	if err := s.cache.Set(ctx, key, res, s.TTLFor(req.Mode)); err != nil {
		slog.Warn("cache write failed", slog.Any("error", err))
	}
	return res, nil
}
