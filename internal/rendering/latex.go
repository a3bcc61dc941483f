package rendering

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/jonathan/resume-pipeline/internal/types"
)

//go:embed resume.tmpl.tex
var defaultTemplate string

// TemplateData is the structure passed to the LaTeX template. All string
// fields are escaped before execution.
type TemplateData struct {
	Name     string
	Email    string
	Sections []SectionBlock
}

// SectionBlock is one resume section with its accepted bullets, in order.
type SectionBlock struct {
	Title   string
	Bullets []string
}

// Renderer turns accepted bullets into LaTeX source.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer builds a renderer from the embedded default template.
func NewRenderer() *Renderer {
	tmpl := template.Must(template.New("resume").Parse(defaultTemplate))
	return &Renderer{tmpl: tmpl}
}

// NewRendererFromFile builds a renderer from a template file, for users
// who bring their own layout.
func NewRendererFromFile(templatePath string) (*Renderer, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{
				Message: fmt.Sprintf("template file not found: %s", templatePath),
				Cause:   err,
			}
		}
		return nil, &TemplateError{
			Message: fmt.Sprintf("failed to read template file: %s", templatePath),
			Cause:   err,
		}
	}

	tmpl, err := template.New("resume").Parse(string(content))
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse template",
			Cause:   err,
		}
	}
	return &Renderer{tmpl: tmpl}, nil
}

// BuildLaTeX renders LaTeX source for the user's accepted bullets,
// grouped into the persona's section order. Sections with no bullets are
// omitted.
func (r *Renderer) BuildLaTeX(user *types.User, persona *types.Persona, bullets []types.ResumeBullet) (string, error) {
	data := &TemplateData{
		Name:     EscapeLaTeX(DisplayName(user)),
		Email:    EscapeLaTeX(user.Email),
		Sections: buildSections(persona, bullets),
	}

	var result strings.Builder
	if err := r.tmpl.Execute(&result, data); err != nil {
		return "", &RenderError{
			Message: "failed to execute template",
			Cause:   err,
		}
	}
	return result.String(), nil
}

// buildSections groups bullets by section in persona order. Bullets in
// sections the persona does not list are appended after the ordered ones,
// in first-seen order, so accepted content is never dropped at render
// time.
func buildSections(persona *types.Persona, bullets []types.ResumeBullet) []SectionBlock {
	bySection := make(map[string][]string)
	var seen []string
	for _, b := range bullets {
		if _, ok := bySection[b.Section]; !ok {
			seen = append(seen, b.Section)
		}
		bySection[b.Section] = append(bySection[b.Section], EscapeLaTeX(b.Text))
	}

	order := persona.Sections()
	inOrder := make(map[string]bool, len(order))
	for _, s := range order {
		inOrder[s] = true
	}
	for _, s := range seen {
		if !inOrder[s] {
			order = append(order, s)
		}
	}

	sections := make([]SectionBlock, 0, len(order))
	for _, s := range order {
		if len(bySection[s]) == 0 {
			continue
		}
		sections = append(sections, SectionBlock{
			Title:   SectionTitle(s),
			Bullets: bySection[s],
		})
	}
	return sections
}

// DisplayName derives a header name from the account. Users carry no
// stored display name, so the email local part is humanized: dots and
// underscores become spaces, words are title-cased.
func DisplayName(user *types.User) string {
	local := user.Email
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	words := strings.Fields(local)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return user.ExternalID
	}
	return strings.Join(words, " ")
}

// SectionTitle humanizes a snake_case section name for display.
func SectionTitle(section string) string {
	words := strings.Split(section, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
