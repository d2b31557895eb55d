package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConfig            = errors.New("configuration error")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstream          = errors.New("upstream error")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrInternal          = errors.New("internal error")
)

// Mode selects which prompt template and response parser apply to a request.
type Mode string

const (
	ModeDefault      Mode = "default"
	ModeChatbot      Mode = "chatbot"
	ModeAutocomplete Mode = "autocomplete"
	ModeCourse       Mode = "course"
	ModeCompanyScore Mode = "company_score"
)

// ParseMode normalizes a mode tag. Unrecognized values degrade to ModeDefault
// rather than erroring; an empty tag also means default.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeChatbot, ModeAutocomplete, ModeCourse, ModeCompanyScore:
		return Mode(s)
	default:
		return ModeDefault
	}
}

// AnalysisRequest is a structured request for the text-generation gateway.
// Invariants: Mode determines prompt template and parser; JobDescription may be
// truncated to a mode-specific budget before use.
type AnalysisRequest struct {
	JobTitle       string
	JobDescription string
	Mode           Mode
}

// ResultSource distinguishes genuine model output from substituted fallbacks.
type ResultSource string

const (
	SourceParsed   ResultSource = "parsed"
	SourceFallback ResultSource = "fallback"
)

// AnalysisResult is the structured outcome of one analysis.
// For numeric modes Value is a string-encoded integer in [0,100] or "N/A".
// For chatbot mode Value is free text. Source marks whether the value came out
// of the model response or was substituted by the parser.
type AnalysisResult struct {
	Value          string       `json:"value"`
	Explanation    string       `json:"explanation,omitempty"`
	Source         ResultSource `json:"source"`
	FallbackReason string       `json:"fallback_reason,omitempty"`
}

// Fallback reports whether the result was substituted rather than parsed.
func (r AnalysisResult) Fallback() bool { return r.Source == SourceFallback }

// Listing is a single job posting passed through verbatim from the job board.
type Listing struct {
	ID              int64  `json:"id,omitempty"`
	Title           string `json:"title"`
	CompanyName     string `json:"company_name"`
	Location        string `json:"candidate_required_location,omitempty"`
	Description     string `json:"description,omitempty"`
	URL             string `json:"url,omitempty"`
	JobType         string `json:"job_type,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	Salary          string `json:"salary,omitempty"`
}

// ScoredListing pairs a listing with its automation-risk analysis.
type ScoredListing struct {
	Listing
	Score       string `json:"ai_score"`
	Explanation string `json:"ai_explanation,omitempty"`
}

// AIClient (port)

// ChatRequest carries a built prompt plus generation parameters.
type ChatRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// AIClient dispatches a chat completion to the text-generation provider and
// returns the raw completion text.
type AIClient interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (string, error)
}

// ListingFetcher (port)

type ListingFetcher interface {
	Fetch(ctx context.Context, keyword string, limit int) ([]Listing, error)
}

// AnalysisCache (port)

// CacheEntry holds one cached analysis result with its expiry.
type CacheEntry struct {
	Value     AnalysisResult `json:"value"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// AnalysisCache stores analysis results by fingerprint. Get must perform a
// lazy expiry check so correctness never depends on the sweep having run.
type AnalysisCache interface {
	Get(ctx context.Context, key string) (AnalysisResult, bool, error)
	Set(ctx context.Context, key string, v AnalysisResult, ttl time.Duration) error
	Sweep(ctx context.Context) (removed int, err error)
}
