// Package prompt builds the per-mode instruction/content pairs sent to the
// text-generation provider.
package prompt

import (
	"fmt"

	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
	"github.com/careerbuddy/careerbuddy/pkg/textx"
)

// System instructions per mode. These are fixed; the caller-supplied text is
// always the user turn.
const (
	systemDefault = "You are an expert on the future of work and AI automation. " +
		"Respond with a short risk summary and a score from 0 (very at risk) to 100 (very safe)."
	systemChatbot = "You are a friendly, practical AI career coach. Answer the user's career " +
		"question in a few short sentences. Never reply with only a number."
	systemAutocomplete = "You suggest job search keywords. Given a partial query, reply with up to " +
		"five completions, one per line, no numbering and no commentary."
	systemCourse = "You recommend one online course for the given skill or topic. Reply with a " +
		"single markdown link in the form [Course Title](URL). If you know no suitable course, reply exactly: no course found."
	systemCompanyScore = "You assess company work culture. Reply with a line in the form " +
		"\"Score: N/100\" followed by two or three short reasons."
)

// Per-mode generation caps, tuned low to control cost and latency.
var maxTokensByMode = map[domain.Mode]int{
	domain.ModeDefault:      100,
	domain.ModeChatbot:      300,
	domain.ModeAutocomplete: 60,
	domain.ModeCourse:       120,
	domain.ModeCompanyScore: 150,
}

const temperature = 0.2

// Builder produces gateway chat requests from analysis requests. It is a pure
// transformation: sanitize, truncate to the configured budget, select the
// mode's template.
type Builder struct {
	cfg config.Config
}

// New constructs a Builder with the given budgets.
func New(cfg config.Config) Builder { return Builder{cfg: cfg} }

// Build produces the exact chat request for one analysis request. Unknown
// modes have already been normalized to default by domain.ParseMode.
func (b Builder) Build(req domain.AnalysisRequest) domain.ChatRequest {
	title := textx.Truncate(textx.SanitizeText(req.JobTitle), b.cfg.TitleMaxChars)
	desc := textx.StripMarkup(req.JobDescription)

	out := domain.ChatRequest{
		MaxTokens:   maxTokensByMode[domain.ModeDefault],
		Temperature: temperature,
	}
	if mt, ok := maxTokensByMode[req.Mode]; ok {
		out.MaxTokens = mt
	}

	switch req.Mode {
	case domain.ModeChatbot:
		out.System = systemChatbot
		out.User = textx.Truncate(desc, b.cfg.DescMaxChars)
	case domain.ModeAutocomplete:
		out.System = systemAutocomplete
		out.User = textx.Truncate(desc, b.cfg.AutocompleteMaxChars)
	case domain.ModeCourse:
		out.System = systemCourse
		out.User = textx.Truncate(desc, b.cfg.CourseMaxChars)
	case domain.ModeCompanyScore:
		out.System = systemCompanyScore
		out.User = fmt.Sprintf("Company: %s. %s", title, textx.Truncate(desc, b.cfg.DescMaxChars))
	default:
		out.System = systemDefault
		out.User = fmt.Sprintf("Analyze this job: %s. Description: %s. How safe is it from AI disruption?",
			title, textx.Truncate(desc, b.cfg.DescMaxChars))
	}
	return out
}
