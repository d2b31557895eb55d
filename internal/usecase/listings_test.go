package usecase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careerbuddy/careerbuddy/internal/adapter/ai/groq"
	"github.com/careerbuddy/careerbuddy/internal/adapter/ai/parse"
	"github.com/careerbuddy/careerbuddy/internal/cache"
	"github.com/careerbuddy/careerbuddy/internal/domain"
	"github.com/careerbuddy/careerbuddy/internal/usecase"
)

// fetcherFunc adapts a function to the ListingFetcher port.
type fetcherFunc func(ctx context.Context, keyword string, limit int) ([]domain.Listing, error)

func (f fetcherFunc) Fetch(ctx context.Context, keyword string, limit int) ([]domain.Listing, error) {
	return f(ctx, keyword, limit)
}

func listings(titles ...string) []domain.Listing {
	out := make([]domain.Listing, len(titles))
	for i, title := range titles {
		out[i] = domain.Listing{Title: title, Description: "about " + title}
	}
	return out
}

func TestSearch_PassesConfiguredLimit(t *testing.T) {
	cfg := testConfig()
	cfg.JobsLimit = 20

	var gotKeyword string
	var gotLimit int
	f := fetcherFunc(func(_ context.Context, keyword string, limit int) ([]domain.Listing, error) {
		gotKeyword, gotLimit = keyword, limit
		return listings("Nurse"), nil
	})
	svc := usecase.NewListingService(cfg, f, nil)

	jobs, err := svc.Search(context.Background(), "nursing")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "nursing", gotKeyword)
	require.Equal(t, 20, gotLimit)
}

func TestScoreListings_GroupsWithDelay(t *testing.T) {
	cfg := testConfig()
	cfg.ScoreBatchSize = 2
	cfg.ScoreBatchDelay = 30 * time.Millisecond

	var mu sync.Mutex
	var stamps []time.Time
	ai := aiFunc(func(_ context.Context, _ domain.ChatRequest) (string, error) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		return "Risk Score: 50", nil
	})
	analyzer := usecase.NewAnalyzeService(cfg, ai, cache.NewMemory())
	svc := usecase.NewListingService(cfg, nil, analyzer)

	scored, err := svc.ScoreListings(context.Background(), listings("a", "b", "c", "d", "e"))
	require.NoError(t, err)
	require.Len(t, scored, 5)
	require.Len(t, stamps, 5)
	for _, s := range scored {
		require.Equal(t, "50", s.Score)
	}

	// Group boundaries: calls 3 and 5 start at least one delay after the
	// previous group's calls.
	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, stamps[2].Sub(stamps[0]), cfg.ScoreBatchDelay)
	require.GreaterOrEqual(t, stamps[4].Sub(stamps[2]), cfg.ScoreBatchDelay)
}

func TestScoreListings_FailedAnalysisKeepsListing(t *testing.T) {
	cfg := testConfig()
	cfg.ScoreBatchSize = 4

	ai := aiFunc(func(_ context.Context, req domain.ChatRequest) (string, error) {
		return "", domain.ErrUpstream
	})
	analyzer := usecase.NewAnalyzeService(cfg, ai, cache.NewMemory())
	svc := usecase.NewListingService(cfg, nil, analyzer)

	scored, err := svc.ScoreListings(context.Background(), listings("Nurse", "Teacher"))
	require.NoError(t, err)
	require.Len(t, scored, 2)
	for _, s := range scored {
		require.Equal(t, parse.ScoreNA, s.Score)
		require.NotEmpty(t, s.Title)
	}
}

func TestScoreListings_CancelledContextStopsEarly(t *testing.T) {
	cfg := testConfig()
	cfg.ScoreBatchSize = 1
	cfg.ScoreBatchDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzer := usecase.NewAnalyzeService(cfg, nil, cache.NewMemory())
	svc := usecase.NewListingService(cfg, nil, analyzer)

	scored, err := svc.ScoreListings(ctx, listings("a", "b"))
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, scored)
}

// Scoring through the real gateway client: a provider that rate-limits the
// first attempt for each listing still yields a full scored set, with exactly
// one retry per listing.
func TestScoreListings_RetriesRateLimitPerListing(t *testing.T) {
	var attempts sync.Map // title -> *int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		user := body.Messages[len(body.Messages)-1].Content

		v, _ := attempts.LoadOrStore(user, new(int64))
		if atomic.AddInt64(v.(*int64), 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Risk Score: 91"}}]}`))
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.GroqAPIKey = "test-key"
	cfg.GroqBaseURL = ts.URL
	cfg.GroqModel = "llama-3.1-8b-instant"
	cfg.GroqTimeout = 5 * time.Second
	cfg.ScoreBatchSize = 4

	analyzer := usecase.NewAnalyzeService(cfg, groq.New(cfg), cache.NewMemory())
	svc := usecase.NewListingService(cfg, nil, analyzer)

	scored, err := svc.ScoreListings(context.Background(), listings("Nurse ICU", "Nurse ER"))
	require.NoError(t, err)
	require.Len(t, scored, 2)
	for _, s := range scored {
		require.Equal(t, "91", s.Score)
	}

	total := int64(0)
	attempts.Range(func(_, v any) bool {
		total += atomic.LoadInt64(v.(*int64))
		return true
	})
	// Two listings, one 429 and one success each.
	require.Equal(t, int64(4), total)
}
