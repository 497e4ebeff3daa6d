// Package view derives what the result area shows and renders it as HTML.
// Nothing here holds state; every render starts again from the controller snapshot.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/hpn/modular-ai/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names registered by NewRenderer.
const (
	PageTemplate   = "page.html"
	ResultTemplate = "result.html"
)

// Kind is one of the four mutually exclusive result views.
type Kind string

const (
	KindEmpty   Kind = "empty"
	KindLoading Kind = "loading"
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

// Model is the input of the result view.
type Model struct {
	Kind     Kind
	Error    string
	Response *domain.AIResponse
}

// Derive picks the view for a state. Loading wins over an error, an error over a response.
func Derive(isLoading bool, errMsg string, resp *domain.AIResponse) Model {
	switch {
	case isLoading:
		return Model{Kind: KindLoading}
	case errMsg != "":
		return Model{Kind: KindError, Error: errMsg}
	case resp != nil:
		return Model{Kind: KindSuccess, Response: resp}
	default:
		return Model{Kind: KindEmpty}
	}
}

// ProviderOption is one entry of the provider selector.
type ProviderOption struct {
	Value    domain.ProviderID
	Label    string
	Selected bool
}

// Page is the data for the full page.
type Page struct {
	Prompt    string
	IsLoading bool
	Providers []ProviderOption
	Result    Model
}

// NewPage builds page data with the selector options for selected.
func NewPage(prompt string, selected domain.ProviderID, isLoading bool, result Model) Page {
	providers := domain.Providers()
	opts := make([]ProviderOption, 0, len(providers))
	for _, p := range providers {
		opts = append(opts, ProviderOption{Value: p, Label: p.Label(), Selected: p == selected})
	}
	return Page{
		Prompt:    prompt,
		IsLoading: isLoading,
		Providers: opts,
		Result:    result,
	}
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Template exposes the parsed set, for frameworks that render by name.
func (r *Renderer) Template() *template.Template {
	return r.tmpl
}

// Result renders the result area for m.
func (r *Renderer) Result(m Model) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, ResultTemplate, m); err != nil {
		return "", fmt.Errorf("failed to render result: %w", err)
	}
	return buf.String(), nil
}

// Page renders the full page to w.
func (r *Renderer) Page(w io.Writer, p Page) error {
	if err := r.tmpl.ExecuteTemplate(w, PageTemplate, p); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}
