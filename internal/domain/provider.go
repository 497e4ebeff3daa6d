// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the application.
package domain

import "strings"

// ProviderID identifies which provider caller the dispatcher invokes.
// The set is closed: values outside it only come from code, never from user input.
type ProviderID string

const (
	// ProviderGemini is the primary provider, the real remote generation service.
	ProviderGemini ProviderID = "gemini-2.5-flash"

	// ProviderMock is the local stand-in used for demos and as the fallback target.
	ProviderMock ProviderID = "groq-mock"
)

// DefaultProvider is the provider preselected for a new session.
const DefaultProvider = ProviderGemini

// Providers lists every known provider in display order.
func Providers() []ProviderID {
	return []ProviderID{ProviderGemini, ProviderMock}
}

// IsValid reports whether p is one of the known providers.
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderGemini, ProviderMock:
		return true
	default:
		return false
	}
}

// Label returns the human-readable name shown in the provider selector.
func (p ProviderID) Label() string {
	switch p {
	case ProviderGemini:
		return "Gemini 2.5 Flash"
	case ProviderMock:
		return "Groq (Mock)"
	default:
		return string(p)
	}
}

func (p ProviderID) String() string {
	return string(p)
}

// ParseProvider converts boundary input into a ProviderID.
// An empty value selects DefaultProvider.
func ParseProvider(s string) (ProviderID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultProvider, nil
	}
	p := ProviderID(s)
	if !p.IsValid() {
		return "", &UnknownProviderError{Provider: s}
	}
	return p, nil
}
