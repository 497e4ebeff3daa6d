package domain

import (
	"errors"
	"testing"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ProviderID
		wantErr bool
	}{
		{name: "primary", input: "gemini-2.5-flash", want: ProviderGemini},
		{name: "mock", input: "groq-mock", want: ProviderMock},
		{name: "surrounding spaces", input: "  groq-mock ", want: ProviderMock},
		{name: "empty selects default", input: "", want: DefaultProvider},
		{name: "unknown", input: "gpt-4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				if !IsUnknownProviderError(err) {
					t.Fatalf("ParseProvider(%q) error = %v, want UnknownProviderError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseProvider(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseProvider(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePrompt(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\n\t "} {
		err := ValidatePrompt(prompt)
		if !IsValidationError(err) {
			t.Fatalf("ValidatePrompt(%q) = %v, want ValidationError", prompt, err)
		}
		if err.Error() != EmptyPromptMessage {
			t.Errorf("ValidatePrompt(%q) message = %q, want %q", prompt, err.Error(), EmptyPromptMessage)
		}
	}

	if err := ValidatePrompt("Explain gravity"); err != nil {
		t.Errorf("ValidatePrompt(non-empty) = %v, want nil", err)
	}
}

func TestAIResponseAsDegraded(t *testing.T) {
	orig := AIResponse{Result: "hi", Provider: ProviderMock}
	got := orig.AsDegraded()

	if !got.Degraded {
		t.Error("AsDegraded().Degraded = false, want true")
	}
	if orig.Degraded {
		t.Error("AsDegraded mutated the receiver")
	}
	if got.Result != orig.Result || got.Provider != orig.Provider {
		t.Errorf("AsDegraded changed fields: %+v", got)
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := error(&ProviderError{Provider: ProviderGemini, Reason: ReasonTransport, Err: cause})

	if !errors.Is(err, cause) {
		t.Error("errors.Is(ProviderError, cause) = false, want true")
	}
	if !IsProviderError(err) {
		t.Error("IsProviderError = false, want true")
	}
	want := "provider gemini-2.5-flash failed (transport): boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
