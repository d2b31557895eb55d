// Package groq implements the text-generation gateway against an
// OpenAI-compatible chat completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/careerbuddy/careerbuddy/internal/adapter/ai/tokencount"
	"github.com/careerbuddy/careerbuddy/internal/adapter/observability"
	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
)

// Client implements domain.AIClient against the provider's chat completions
// endpoint with bearer-token auth.
type Client struct {
	cfg    config.Config
	hc     *http.Client
	tokens *tokencount.Counter
}

// New constructs a gateway client with an explicit per-call timeout.
func New(cfg config.Config) *Client {
	return &Client{
		cfg:    cfg,
		hc:     &http.Client{Timeout: cfg.GroqTimeout},
		tokens: tokencount.NewCounter(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// errRateLimited marks an attempt that failed on provider throughput limits,
// so the caller can move on to the next fallback model.
var errRateLimited = errors.New("provider rate limited")

// ChatCompletion dispatches the prompt and returns the raw completion text.
//
// A missing credential fails immediately without any outbound call. Rate-limit
// responses are retried with exponential backoff, then against each fallback
// model in order; any other client error aborts immediately.
func (c *Client) ChatCompletion(ctx context.Context, req domain.ChatRequest) (string, error) {
	if c.cfg.GroqAPIKey == "" {
		return "", fmt.Errorf("%w: GROQ_API_KEY missing", domain.ErrConfig)
	}

	models := append([]string{c.cfg.GroqModel}, c.cfg.GroqFallbackModels...)
	promptTokens := c.tokens.CountChatTokens(req.System, req.User, c.cfg.GroqModel)
	slog.Debug("dispatching chat completion",
		slog.String("model", c.cfg.GroqModel),
		slog.Int("prompt_tokens", promptTokens),
		slog.Int("max_tokens", req.MaxTokens))

	var lastErr error
	for _, model := range models {
		content, err := c.completeWithRetry(ctx, model, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !errors.Is(err, errRateLimited) {
			// Non-rate-limit failures abort without trying further models.
			return "", err
		}
		slog.Warn("model exhausted retry budget on rate limits, trying fallback",
			slog.String("model", model))
	}
	if errors.Is(lastErr, errRateLimited) {
		return "", fmt.Errorf("%w: all models exhausted", domain.ErrUpstreamRateLimit)
	}
	return "", lastErr
}

// completeWithRetry issues one logical completion against a single model,
// retrying 429s and transient failures with exponential backoff.
func (c *Client) completeWithRetry(ctx context.Context, model string, req domain.ChatRequest) (string, error) {
	body, _ := json.Marshal(chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})

	var out chatCompletionResponse
	op := func() error {
		start := time.Now()
		// Recreate the request each attempt to avoid reusing consumed bodies.
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GroqBaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Authorization", "Bearer "+c.cfg.GroqAPIKey)
		r.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(r)
		observability.AIRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
		if err != nil {
			observability.AIRequestsTotal.WithLabelValues(model, "transport_error").Inc()
			// Transport failures (including per-call timeouts) stay
			// retryable while the backoff budget lasts.
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			observability.AIRequestsTotal.WithLabelValues(model, "rate_limited").Inc()
			slog.Warn("provider rate limited",
				slog.String("model", model),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			return errRateLimited
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			observability.AIRequestsTotal.WithLabelValues(model, "client_error").Inc()
			slog.Warn("provider 4xx",
				slog.String("model", model),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(respBody, 512)))
			return backoff.Permanent(fmt.Errorf("%w: chat status %d: %s", domain.ErrUpstream, resp.StatusCode, snippet(respBody, 256)))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			observability.AIRequestsTotal.WithLabelValues(model, "server_error").Inc()
			slog.Error("provider non-2xx",
				slog.String("model", model),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(respBody, 512)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(respBody, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: decode: %v", domain.ErrUpstream, err))
		}
		observability.AIRequestsTotal.WithLabelValues(model, "ok").Inc()
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime, expo.InitialInterval, expo.MaxInterval, expo.Multiplier = c.cfg.GetAIBackoffConfig()
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		// Classify from the final attempt's error only: a 429 followed by a
		// terminal failure on the same model is not a rate-limit outcome.
		if errors.Is(err, errRateLimited) {
			return "", fmt.Errorf("%w: model %s: %v", errRateLimited, model, err)
		}
		if errors.Is(err, domain.ErrUpstream) || errors.Is(err, domain.ErrConfig) {
			return "", err
		}
		return "", fmt.Errorf("%w: model %s: %v", domain.ErrUpstream, model, err)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", domain.ErrUpstream)
	}
	if out.Model != "" && out.Model != model {
		slog.Warn("model substitution detected",
			slog.String("requested_model", model),
			slog.String("actual_model", out.Model))
	}
	return out.Choices[0].Message.Content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
