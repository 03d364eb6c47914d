// Provider interface - the abstract interface for generation services.
// Each implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import "context"

// Provider defines the abstract interface for generation-service backends.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Complete sends a completion request.
	Complete(ctx context.Context, req Request) (Completion, error)
}
