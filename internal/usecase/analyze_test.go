package usecase_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careerbuddy/careerbuddy/internal/cache"
	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
	"github.com/careerbuddy/careerbuddy/internal/usecase"
)

// aiFunc adapts a function to the AIClient port.
type aiFunc func(ctx context.Context, req domain.ChatRequest) (string, error)

func (f aiFunc) ChatCompletion(ctx context.Context, req domain.ChatRequest) (string, error) {
	return f(ctx, req)
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:               "test",
		CacheTTLDefault:      24 * time.Hour,
		CacheTTLLong:         168 * time.Hour,
		CacheTTLAutocomplete: 2 * time.Hour,
		CourseFallbackTopic:  "sql",
		CourseFallbackTitle:  "SQL for Data Analysis",
		CourseFallbackURL:    "https://example.com/sql",
	}
}

func TestAnalyze_ParsesAndCaches(t *testing.T) {
	var calls int64
	ai := aiFunc(func(_ context.Context, _ domain.ChatRequest) (string, error) {
		atomic.AddInt64(&calls, 1)
		return "Risk Summary: exposed. Risk Score: 72", nil
	})
	mem := cache.NewMemory()
	svc := usecase.NewAnalyzeService(testConfig(), ai, mem)

	req := domain.AnalysisRequest{JobTitle: "Data Entry Clerk", JobDescription: "typing", Mode: domain.ModeDefault}

	res, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "72", res.Value)
	require.Equal(t, domain.SourceParsed, res.Source)

	// Second identical request is served from cache.
	res2, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, res, res2)
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestAnalyze_UnknownModeTreatedAsDefault(t *testing.T) {
	ai := aiFunc(func(_ context.Context, req domain.ChatRequest) (string, error) {
		return "Risk Score: 10", nil
	})
	svc := usecase.NewAnalyzeService(testConfig(), ai, cache.NewMemory())

	res, err := svc.Analyze(context.Background(), domain.AnalysisRequest{
		JobTitle: "Nurse", Mode: domain.Mode("bogus"),
	})
	require.NoError(t, err)
	require.Equal(t, "10", res.Value)
}

func TestAnalyze_ConcurrentIdenticalRequestsShareOneCall(t *testing.T) {
	var calls int64
	release := make(chan struct{})
	ai := aiFunc(func(_ context.Context, _ domain.ChatRequest) (string, error) {
		atomic.AddInt64(&calls, 1)
		<-release
		return "Risk Score: 55", nil
	})
	svc := usecase.NewAnalyzeService(testConfig(), ai, cache.NewMemory())
	req := domain.AnalysisRequest{JobTitle: "Nurse", JobDescription: "care", Mode: domain.ModeDefault}

	const n = 8
	results := make([]domain.AnalysisResult, n)
	errs := make([]error, n)
	var started, done sync.WaitGroup
	for i := 0; i < n; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = svc.Analyze(context.Background(), req)
		}(i)
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond) // let every goroutine reach the flight group
	close(release)
	done.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "55", results[i].Value)
	}
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestAnalyze_ExpiredEntryTriggersRefetch(t *testing.T) {
	var calls int64
	ai := aiFunc(func(_ context.Context, _ domain.ChatRequest) (string, error) {
		atomic.AddInt64(&calls, 1)
		return "Risk Score: 30", nil
	})
	mem := cache.NewMemory()
	now := time.Now()
	mem.SetClock(func() time.Time { return now })
	svc := usecase.NewAnalyzeService(testConfig(), ai, mem)
	req := domain.AnalysisRequest{JobTitle: "Nurse", Mode: domain.ModeDefault}

	_, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	_, err = svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestAnalyze_UpstreamErrorPropagates(t *testing.T) {
	ai := aiFunc(func(_ context.Context, _ domain.ChatRequest) (string, error) {
		return "", domain.ErrUpstreamRateLimit
	})
	mem := cache.NewMemory()
	svc := usecase.NewAnalyzeService(testConfig(), ai, mem)

	_, err := svc.Analyze(context.Background(), domain.AnalysisRequest{JobTitle: "Nurse"})
	require.ErrorIs(t, err, domain.ErrUpstreamRateLimit)
	// Failures are never cached.
	require.Zero(t, mem.Len())
}

func TestTTLFor(t *testing.T) {
	svc := usecase.NewAnalyzeService(testConfig(), nil, cache.NewMemory())

	require.Equal(t, 24*time.Hour, svc.TTLFor(domain.ModeDefault))
	require.Equal(t, 24*time.Hour, svc.TTLFor(domain.ModeChatbot))
	require.Equal(t, 2*time.Hour, svc.TTLFor(domain.ModeAutocomplete))
	require.Equal(t, 168*time.Hour, svc.TTLFor(domain.ModeCourse))
	require.Equal(t, 168*time.Hour, svc.TTLFor(domain.ModeCompanyScore))
}
