package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/careerbuddy/careerbuddy/internal/adapter/ai/parse"
	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
)

// ListingService fetches job listings and scores them against the gateway.
type ListingService struct {
	cfg      config.Config
	fetcher  domain.ListingFetcher
	analyzer *AnalyzeService
}

// NewListingService constructs a ListingService with its dependencies.
func NewListingService(cfg config.Config, f domain.ListingFetcher, a *AnalyzeService) *ListingService {
	return &ListingService{cfg: cfg, fetcher: f, analyzer: a}
}

// Search returns up to the configured number of listings for keyword.
func (s *ListingService) Search(ctx context.Context, keyword string) ([]domain.Listing, error) {
	return s.fetcher.Fetch(ctx, keyword, s.cfg.JobsLimit)
}

// ScoreListings runs a default-mode risk analysis for each listing, in fixed
// groups with a fixed inter-group delay to stay under the provider rate
// limit. This is a fixed-rate throttle, not adaptive backpressure.
//
// A failed analysis never drops the listing: it is kept with an "N/A" score
// so the result set is always displayable.
func (s *ListingService) ScoreListings(ctx context.Context, listings []domain.Listing) ([]domain.ScoredListing, error) {
	batch := s.cfg.ScoreBatchSize
	if batch <= 0 {
		batch = 1
	}

	scored := make([]domain.ScoredListing, len(listings))
	for start := 0; start < len(listings); start += batch {
		if err := ctx.Err(); err != nil {
			return scored[:start], err
		}
		end := start + batch
		if end > len(listings) {
			end = len(listings)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				scored[i] = s.scoreOne(ctx, listings[i])
			}(i)
		}
		wg.Wait()

		if end < len(listings) && s.cfg.ScoreBatchDelay > 0 {
			select {
			case <-time.After(s.cfg.ScoreBatchDelay):
			case <-ctx.Done():
				return scored[:end], ctx.Err()
			}
		}
	}
	return scored, nil
}

func (s *ListingService) scoreOne(ctx context.Context, l domain.Listing) domain.ScoredListing {
	desc := l.Description
	if desc == "" {
		desc = l.Title
	}
	res, err := s.analyzer.Analyze(ctx, domain.AnalysisRequest{
		JobTitle:       l.Title,
		JobDescription: desc,
		Mode:           domain.ModeDefault,
	})
	if err != nil {
		slog.Warn("listing score failed",
			slog.String("title", l.Title),
			slog.Any("error", err))
		return domain.ScoredListing{Listing: l, Score: parse.ScoreNA}
	}
	return domain.ScoredListing{Listing: l, Score: res.Value, Explanation: res.Explanation}
}
