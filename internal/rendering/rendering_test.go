package rendering

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/types"
)

func TestEscapeLaTeXSpecialCharacters(t *testing.T) {
	cases := map[string]string{
		"50% faster":     `50\% faster`,
		"AT&T":           `AT\&T`,
		"$2M budget":     `\$2M budget`,
		"C# and F#":      `C\# and F\#`,
		"a_b":            `a\_b`,
		"{braces}":       `\{braces\}`,
		"x^2":            `x\textasciicircum{}2`,
		"~user":          `\textasciitilde{}user`,
		`back\slash`:     `back\textbackslash{}slash`,
		"plain text 123": "plain text 123",
		"":               "",
	}
	for input, want := range cases {
		assert.Equal(t, want, EscapeLaTeX(input), "input %q", input)
	}
}

func testUser() *types.User {
	return &types.User{Email: "ada.lovelace@example.com", ExternalID: "ext-1"}
}

func TestDisplayNameFromEmail(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", DisplayName(testUser()))
	assert.Equal(t, "Grace Hopper", DisplayName(&types.User{Email: "grace_hopper@navy.mil"}))
	assert.Equal(t, "ext-2", DisplayName(&types.User{Email: "@nowhere", ExternalID: "ext-2"}))
}

func TestSectionTitle(t *testing.T) {
	assert.Equal(t, "Open Source", SectionTitle("open_source"))
	assert.Equal(t, "Experience", SectionTitle("experience"))
}

func TestBuildLaTeXGroupsBySection(t *testing.T) {
	bullets := []types.ResumeBullet{
		{Section: "project", Text: "Built a CLI for batch imports."},
		{Section: "experience", Text: "Led migration to Kubernetes."},
		{Section: "experience", Text: "Cut infra costs by 30%."},
	}

	source, err := NewRenderer().BuildLaTeX(testUser(), nil, bullets)
	require.NoError(t, err)

	assert.Contains(t, source, `\documentclass`)
	assert.Contains(t, source, "Ada Lovelace")
	assert.Contains(t, source, "ada.lovelace@example.com")

	// Default section order puts experience before project.
	expIdx := strings.Index(source, `\section*{Experience}`)
	projIdx := strings.Index(source, `\section*{Project}`)
	require.GreaterOrEqual(t, expIdx, 0)
	require.GreaterOrEqual(t, projIdx, 0)
	assert.Less(t, expIdx, projIdx)

	// Both experience bullets land in one section, escaped.
	assert.Contains(t, source, `Cut infra costs by 30\%.`)
	assert.Contains(t, source, "Led migration to Kubernetes.")
}

func TestBuildLaTeXHonorsPersonaSectionOrder(t *testing.T) {
	persona := &types.Persona{SectionOrder: []string{"project", "experience"}}
	bullets := []types.ResumeBullet{
		{Section: "experience", Text: "Shipped the payments service."},
		{Section: "project", Text: "Wrote a Raft implementation."},
	}

	source, err := NewRenderer().BuildLaTeX(testUser(), persona, bullets)
	require.NoError(t, err)

	projIdx := strings.Index(source, `\section*{Project}`)
	expIdx := strings.Index(source, `\section*{Experience}`)
	assert.Less(t, projIdx, expIdx)
}

func TestBuildLaTeXOmitsEmptySections(t *testing.T) {
	bullets := []types.ResumeBullet{{Section: "experience", Text: "One bullet."}}
	source, err := NewRenderer().BuildLaTeX(testUser(), nil, bullets)
	require.NoError(t, err)

	assert.Contains(t, source, `\section*{Experience}`)
	assert.NotContains(t, source, `\section*{Education}`)
	assert.NotContains(t, source, `\section*{Skill}`)
}

func TestBuildLaTeXKeepsUnknownSections(t *testing.T) {
	// A section outside the canonical list still renders rather than
	// silently dropping accepted bullets.
	bullets := []types.ResumeBullet{{Section: "volunteering", Text: "Taught weekend coding classes."}}
	source, err := NewRenderer().BuildLaTeX(testUser(), nil, bullets)
	require.NoError(t, err)
	assert.Contains(t, source, `\section*{Volunteering}`)
}

func TestBuildLaTeXNoBullets(t *testing.T) {
	source, err := NewRenderer().BuildLaTeX(testUser(), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, source, `\begin{document}`)
	assert.NotContains(t, source, `\section*`)
}

func TestNewRendererFromFileMissing(t *testing.T) {
	renderer, err := NewRendererFromFile("/nonexistent/template.tex")
	require.Error(t, err)
	assert.Nil(t, renderer)

	var te *TemplateError
	assert.ErrorAs(t, err, &te)
}
