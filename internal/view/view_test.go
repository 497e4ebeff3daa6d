package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hpn/modular-ai/internal/domain"
)

func TestDerive(t *testing.T) {
	resp := &domain.AIResponse{Result: "r", Provider: domain.ProviderMock}

	tests := []struct {
		name      string
		isLoading bool
		err       string
		resp      *domain.AIResponse
		want      Kind
	}{
		{name: "nothing yet", want: KindEmpty},
		{name: "loading wins", isLoading: true, err: "e", resp: resp, want: KindLoading},
		{name: "error over response", err: "e", resp: resp, want: KindError},
		{name: "response", resp: resp, want: KindSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.isLoading, tt.err, tt.resp).Kind; got != tt.want {
				t.Errorf("Derive() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRendererResult(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	tests := []struct {
		name     string
		model    Model
		contains []string
		excludes []string
	}{
		{
			name:     "empty",
			model:    Derive(false, "", nil),
			contains: []string{"Your AI-generated content will appear here."},
		},
		{
			name:     "loading",
			model:    Derive(true, "", nil),
			contains: []string{"Generating response..."},
		},
		{
			name:     "error",
			model:    Derive(false, "Please enter a prompt.", nil),
			contains: []string{"An Error Occurred", "Please enter a prompt."},
		},
		{
			name:     "success",
			model:    Derive(false, "", &domain.AIResponse{Result: "hello", Provider: domain.ProviderGemini}),
			contains: []string{"hello", "gemini-2.5-flash"},
			excludes: []string{"Degraded"},
		},
		{
			name:     "degraded success",
			model:    Derive(false, "", &domain.AIResponse{Result: "fallback", Provider: domain.ProviderMock, Degraded: true}),
			contains: []string{"fallback", "groq-mock", "Degraded"},
		},
		{
			name:     "result text is escaped",
			model:    Derive(false, "", &domain.AIResponse{Result: "<script>x</script>", Provider: domain.ProviderMock}),
			contains: []string{"&lt;script&gt;"},
			excludes: []string{"<script>x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := r.Result(tt.model)
			if err != nil {
				t.Fatalf("Result() error: %v", err)
			}
			if !strings.Contains(html, `data-view="`+string(tt.model.Kind)+`"`) {
				t.Errorf("Result() did not render the %s view: %s", tt.model.Kind, html)
			}
			for _, s := range tt.contains {
				if !strings.Contains(html, s) {
					t.Errorf("Result() missing %q in %s", s, html)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(html, s) {
					t.Errorf("Result() should not contain %q: %s", s, html)
				}
			}
		})
	}
}

func TestRendererPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	var buf bytes.Buffer
	page := NewPage("Explain gravity", domain.ProviderMock, true, Derive(true, "", nil))
	if err := r.Page(&buf, page); err != nil {
		t.Fatalf("Page() error: %v", err)
	}
	html := buf.String()

	for _, s := range []string{
		"Modular AI Interface",
		"Explain gravity",
		`<option value="groq-mock" selected>Groq (Mock)</option>`,
		"Generating...",
		`data-view="loading"`,
	} {
		if !strings.Contains(html, s) {
			t.Errorf("Page() missing %q", s)
		}
	}
	if !strings.Contains(html, `<button id="submit" type="submit" disabled>`) {
		t.Error("submit button should be disabled while loading")
	}
}

func TestRendererPageScriptAppliesStreamedStateOnly(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	var buf bytes.Buffer
	if err := r.Page(&buf, NewPage("", domain.DefaultProvider, false, Derive(false, "", nil))); err != nil {
		t.Fatalf("Page() error: %v", err)
	}
	html := buf.String()

	// A late /submit reply must not overwrite a newer streamed state.
	if strings.Contains(html, ".then(apply)") {
		t.Error("submit reply is applied as state; only /events should drive the result area")
	}
	if !strings.Contains(html, `events.addEventListener("state"`) {
		t.Error("page does not apply streamed state events")
	}
}
