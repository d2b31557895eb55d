// Package parse converts raw provider completions into structured analysis
// results, one parser per mode.
//
// The provider's output format is not contractually guaranteed, so every
// parser is defensive: it always produces a structured result and never
// errors. When a response is unusable the parser substitutes a fallback value
// and tags the result as such, so observability can distinguish genuine model
// output from masked failures.
package parse

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/careerbuddy/careerbuddy/internal/adapter/observability"
	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
)

// ScoreNA is the sentinel value for numeric modes with no parseable score.
const ScoreNA = "N/A"

// chatClarification replaces numeric-only chat replies. A bare number is
// treated as a malformed coaching answer.
const chatClarification = "I'm here to help with your career questions. " +
	"Could you tell me more about your goals, interests, or what you're looking for?"

// noRecommendation is returned by course mode when neither the model nor the
// configured fallback yields a course.
const noRecommendation = "no recommendation"

var (
	intRe          = regexp.MustCompile(`\d+`)
	numericOnlyRe  = regexp.MustCompile(`^\s*\d+\s*$`)
	scoreOf100Re   = regexp.MustCompile(`(?i)score:\s*(\d{1,3})\s*/\s*100`)
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	riskTrailerRe  = regexp.MustCompile(`(?i)risk (summary|score):.*$`)
)

// minCompanyExplanation is the shortest company-score explanation considered
// plausible; anything shorter is replaced wholesale.
const minCompanyExplanation = 20

// Parser maps (mode, raw completion) pairs to analysis results.
type Parser struct {
	cfg config.Config
}

// New constructs a Parser carrying the configured fallbacks.
func New(cfg config.Config) Parser { return Parser{cfg: cfg} }

// Parse converts raw completion text into an AnalysisResult for the mode.
// subject is the original caller-supplied text, used only to pick the course
// fallback. Parse never fails; unusable responses yield tagged fallbacks.
func (p Parser) Parse(mode domain.Mode, subject, raw string) domain.AnalysisResult {
	var res domain.AnalysisResult
	switch mode {
	case domain.ModeChatbot:
		res = p.parseChat(raw)
	case domain.ModeCompanyScore:
		res = p.parseCompanyScore(raw)
	case domain.ModeCourse:
		res = p.parseCourse(subject, raw)
	case domain.ModeAutocomplete:
		res = p.parseAutocomplete(raw)
	default:
		res = p.parseRiskScore(raw)
	}
	if res.Fallback() {
		observability.ParseFallbacksTotal.WithLabelValues(string(mode), res.FallbackReason).Inc()
		slog.Warn("parser substituted fallback",
			slog.String("mode", string(mode)),
			slog.String("reason", res.FallbackReason),
			slog.Int("raw_len", len(raw)))
	}
	return res
}

// parseRiskScore extracts the first integer in [0,100] from the completion.
// The full raw text is retained as explanation either way.
func (p Parser) parseRiskScore(raw string) domain.AnalysisResult {
	raw = strings.TrimSpace(raw)
	if n, ok := firstIntInRange(raw, 0, 100); ok {
		return domain.AnalysisResult{
			Value:       strconv.Itoa(n),
			Explanation: raw,
			Source:      domain.SourceParsed,
		}
	}
	return domain.AnalysisResult{
		Value:          ScoreNA,
		Explanation:    raw,
		Source:         domain.SourceFallback,
		FallbackReason: "no_numeric_score",
	}
}

// parseChat passes the reply through verbatim, stripping any risk-scoring
// trailer the model tacked on. Empty and purely numeric replies are replaced
// with a clarification prompt, each under its own fallback reason.
func (p Parser) parseChat(raw string) domain.AnalysisResult {
	text := strings.TrimSpace(riskTrailerRe.ReplaceAllString(raw, ""))
	if text == "" {
		return domain.AnalysisResult{
			Value:          chatClarification,
			Source:         domain.SourceFallback,
			FallbackReason: "empty_reply",
		}
	}
	if numericOnlyRe.MatchString(text) {
		return domain.AnalysisResult{
			Value:          chatClarification,
			Source:         domain.SourceFallback,
			FallbackReason: "numeric_chat_reply",
		}
	}
	return domain.AnalysisResult{Value: text, Source: domain.SourceParsed}
}

// parseCompanyScore looks for a "Score: N/100" pattern, then a bare integer in
// range. A missing score or an implausibly short explanation yields the canned
// block instead of surfacing the failure.
func (p Parser) parseCompanyScore(raw string) domain.AnalysisResult {
	raw = strings.TrimSpace(raw)
	var score int
	found := false
	if m := scoreOf100Re.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 && n <= 100 {
			score, found = n, true
		}
	}
	if !found {
		if n, ok := firstIntInRange(raw, 0, 100); ok {
			score, found = n, true
		}
	}
	if found && len(raw) >= minCompanyExplanation {
		return domain.AnalysisResult{
			Value:       strconv.Itoa(score),
			Explanation: raw,
			Source:      domain.SourceParsed,
		}
	}
	reason := "no_company_score"
	if found {
		reason = "short_explanation"
	}
	return domain.AnalysisResult{
		Value: "70",
		Explanation: "Score: 70/100. Mixed public reviews, average work-life balance, " +
			"and limited culture information available.",
		Source:         domain.SourceFallback,
		FallbackReason: reason,
	}
}

// parseCourse looks for a markdown course link. When the model finds nothing
// and the query mentions the configured fallback topic, a fixed course is
// substituted; otherwise there is simply no recommendation.
func (p Parser) parseCourse(subject, raw string) domain.AnalysisResult {
	raw = strings.TrimSpace(raw)
	noCourse := strings.Contains(strings.ToLower(raw), "no course found")
	if m := markdownLinkRe.FindStringSubmatch(raw); m != nil && !noCourse {
		return domain.AnalysisResult{
			Value:       m[0],
			Explanation: raw,
			Source:      domain.SourceParsed,
		}
	}
	if strings.Contains(strings.ToLower(subject), strings.ToLower(p.cfg.CourseFallbackTopic)) {
		return domain.AnalysisResult{
			Value:          fmt.Sprintf("[%s](%s)", p.cfg.CourseFallbackTitle, p.cfg.CourseFallbackURL),
			Source:         domain.SourceFallback,
			FallbackReason: "topic_fallback",
		}
	}
	return domain.AnalysisResult{
		Value:          noRecommendation,
		Source:         domain.SourceFallback,
		FallbackReason: "no_course_found",
	}
}

// parseAutocomplete normalizes the suggestion list to one suggestion per line.
func (p Parser) parseAutocomplete(raw string) domain.AnalysisResult {
	var out []string
	for _, line := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ',' }) {
		s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return domain.AnalysisResult{
			Value:          "",
			Source:         domain.SourceFallback,
			FallbackReason: "empty_suggestions",
		}
	}
	return domain.AnalysisResult{Value: strings.Join(out, "\n"), Source: domain.SourceParsed}
}

// firstIntInRange scans raw for the first integer substring within [lo, hi].
func firstIntInRange(raw string, lo, hi int) (int, bool) {
	for _, m := range intRe.FindAllString(raw, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n >= lo && n <= hi {
			return n, true
		}
	}
	return 0, false
}
