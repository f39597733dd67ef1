package llm

import "context"

// Provider is the interface all remote model backends must implement.
type Provider interface {
	// Complete sends a prompt and returns a completion.
	Complete(ctx context.Context, prompt *Prompt, opts *RequestOptions) (*Response, error)
	// Embed returns embedding vectors for the given texts.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string
}

// RequestOptions tunes a single completion call. Nil fields use provider
// defaults.
type RequestOptions struct {
	Temperature *float64
	MaxTokens   *int
}

// Temp is a convenience for building a temperature pointer inline.
func Temp(t float64) *float64 { return &t }

// Tokens is a convenience for building a max-tokens pointer inline.
func Tokens(n int) *int { return &n }
