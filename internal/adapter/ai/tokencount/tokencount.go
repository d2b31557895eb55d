// Package tokencount estimates token usage for provider calls.
//
// It uses tiktoken-go to count prompt tokens before dispatch so the gateway
// can log how much of the per-mode budget a request consumes.
package tokencount

import (
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting.
type Counter struct {
	mu    sync.RWMutex
	cache map[string]*tiktoken.Tiktoken
}

// NewCounter creates a token counter.
func NewCounter() *Counter {
	return &Counter{cache: make(map[string]*tiktoken.Tiktoken)}
}

func (c *Counter) encodingFor(model string) (*tiktoken.Tiktoken, error) {
	name := normalizeModelName(model)

	c.mu.RLock()
	enc, ok := c.cache[name]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.cache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		// cl100k_base approximates most modern chat models well enough
		// for budget logging.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.cache[name] = enc
	return enc, nil
}

// normalizeModelName maps provider model IDs to tiktoken-compatible names.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	switch {
	case strings.Contains(model, "gpt-4"):
		return "gpt-4"
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		return "gpt-4"
	}
}

// CountChatTokens counts prompt tokens for a system+user chat completion,
// including the per-message overhead used by OpenAI-compatible APIs.
func (c *Counter) CountChatTokens(systemPrompt, userPrompt, model string) int {
	enc, err := c.encodingFor(model)
	if err != nil {
		// Rough estimate: ~4 chars per token.
		return (len(systemPrompt) + len(userPrompt)) / 4
	}
	const tokensPerMessage, tokensPerRole = 3, 1
	n := 0
	for _, part := range []struct{ role, text string }{
		{"system", systemPrompt},
		{"user", userPrompt},
	} {
		n += tokensPerMessage + tokensPerRole
		n += len(enc.Encode(part.role, nil, nil))
		n += len(enc.Encode(part.text, nil, nil))
	}
	// Every reply is primed with <|start|>assistant<|message|>.
	return n + 3
}
