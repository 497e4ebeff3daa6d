// Package domain contains the core business entities and value objects.
package domain

import "strings"

// EmptyPromptMessage is shown when a blank prompt is submitted.
const EmptyPromptMessage = "Please enter a prompt."

// ValidatePrompt rejects empty and whitespace-only prompts.
// The prompt itself is passed on untouched; only the check trims.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return &ValidationError{Field: "prompt", Message: EmptyPromptMessage}
	}
	return nil
}
