package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/careerbuddy/careerbuddy/internal/adapter/ai/prompt"
	"github.com/careerbuddy/careerbuddy/internal/config"
	"github.com/careerbuddy/careerbuddy/internal/domain"
)

func testCfg() config.Config {
	return config.Config{
		TitleMaxChars:        120,
		DescMaxChars:         800,
		AutocompleteMaxChars: 40,
		CourseMaxChars:       120,
	}
}

func TestBuild_DefaultMode(t *testing.T) {
	b := prompt.New(testCfg())
	out := b.Build(domain.AnalysisRequest{
		JobTitle:       "Nurse",
		JobDescription: "<p>Patient care and charting</p>",
		Mode:           domain.ModeDefault,
	})
	require.Contains(t, out.System, "AI automation")
	require.Contains(t, out.User, "Analyze this job: Nurse")
	require.Contains(t, out.User, "Patient care and charting")
	require.NotContains(t, out.User, "<p>")
	require.Equal(t, 100, out.MaxTokens)
	require.InDelta(t, 0.2, out.Temperature, 1e-9)
}

func TestBuild_ModeSelectsTemplateAndBudget(t *testing.T) {
	b := prompt.New(testCfg())
	long := strings.Repeat("a", 2000)

	chat := b.Build(domain.AnalysisRequest{JobDescription: long, Mode: domain.ModeChatbot})
	require.Contains(t, chat.System, "career coach")
	require.Len(t, chat.User, 800)
	require.Equal(t, 300, chat.MaxTokens)

	ac := b.Build(domain.AnalysisRequest{JobDescription: long, Mode: domain.ModeAutocomplete})
	require.Contains(t, ac.System, "completions")
	require.Len(t, ac.User, 40)
	require.Equal(t, 60, ac.MaxTokens)

	course := b.Build(domain.AnalysisRequest{JobDescription: "sql basics", Mode: domain.ModeCourse})
	require.Contains(t, course.System, "no course found")
	require.Equal(t, "sql basics", course.User)

	company := b.Build(domain.AnalysisRequest{JobTitle: "Acme", JobDescription: "reviews", Mode: domain.ModeCompanyScore})
	require.Contains(t, company.System, "Score: N/100")
	require.Contains(t, company.User, "Company: Acme")
}

func TestBuild_TruncatesTitle(t *testing.T) {
	b := prompt.New(testCfg())
	out := b.Build(domain.AnalysisRequest{
		JobTitle: strings.Repeat("t", 500),
		Mode:     domain.ModeDefault,
	})
	require.Contains(t, out.User, strings.Repeat("t", 120)+".")
	require.NotContains(t, out.User, strings.Repeat("t", 121))
}

func TestBuild_UnknownModeFallsBackToDefaultTemplate(t *testing.T) {
	b := prompt.New(testCfg())
	out := b.Build(domain.AnalysisRequest{JobTitle: "x", Mode: domain.Mode("bogus")})
	require.Contains(t, out.System, "AI automation")
	require.Equal(t, 100, out.MaxTokens)
}
