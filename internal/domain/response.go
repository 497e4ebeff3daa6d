// Package domain contains the core business entities and value objects.
package domain

// AIResponse is the result record produced by a successful dispatch.
// The JSON field names are the externally documented contract.
type AIResponse struct {
	// Result is the generated text.
	Result string `json:"result"`

	// Provider identifies the caller that actually produced Result.
	Provider ProviderID `json:"provider"`

	// Degraded is true only when Result came from the fallback path
	// after the primary provider failed.
	Degraded bool `json:"degraded"`
}

// AsDegraded returns a copy of r marked as produced by the fallback path.
func (r AIResponse) AsDegraded() AIResponse {
	r.Degraded = true
	return r
}
