package remotive_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careerbuddy/careerbuddy/internal/adapter/jobs/remotive"
	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
)

const jobsBody = `{
  "jobs": [
    {"id": 1, "title": "Backend Engineer", "company_name": "Acme", "candidate_required_location": "Worldwide", "url": "https://example.com/1", "description": "<p>Build APIs</p>"},
    {"id": 2, "title": "SRE", "company_name": "Beta", "candidate_required_location": "EU", "url": "https://example.com/2", "description": "Keep it up"},
    {"id": 3, "title": "Data Engineer", "company_name": "Gamma", "candidate_required_location": "US", "url": "https://example.com/3", "description": "Pipelines"}
  ]
}`

func newClient(baseURL string) *remotive.Client {
	return remotive.New(config.Config{JobsBaseURL: baseURL, JobsTimeout: 5 * time.Second})
}

func TestFetch_DecodesListings(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "nursing", r.URL.Query().Get("search"))
		require.Equal(t, "20", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(jobsBody))
	}))
	defer ts.Close()

	jobs, err := newClient(ts.URL).Fetch(context.Background(), "nursing", 20)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	require.Equal(t, "Backend Engineer", jobs[0].Title)
	require.Equal(t, "Acme", jobs[0].CompanyName)
	require.Equal(t, "Worldwide", jobs[0].Location)
	require.Equal(t, "<p>Build APIs</p>", jobs[0].Description)
}

func TestFetch_EmptyKeywordUsesDefault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, remotive.DefaultKeyword, r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`{"jobs":[]}`))
	}))
	defer ts.Close()

	jobs, err := newClient(ts.URL).Fetch(context.Background(), "", 20)
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestFetch_TruncatesOversizedResponse(t *testing.T) {
	// The provider may ignore the limit parameter; the client enforces it.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(jobsBody))
	}))
	defer ts.Close()

	jobs, err := newClient(ts.URL).Fetch(context.Background(), "x", 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
}

func TestFetch_ServerErrorIsUpstream(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := newClient(ts.URL).Fetch(context.Background(), "x", 20)
	require.ErrorIs(t, err, domain.ErrUpstream)
}

func TestFetch_MalformedBodyIsUpstream(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	_, err := newClient(ts.URL).Fetch(context.Background(), "x", 20)
	require.ErrorIs(t, err, domain.ErrUpstream)
}
