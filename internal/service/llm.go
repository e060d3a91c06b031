package service

import "context"

// LLMClient abstracts the language model so services can be tested with
// fakes and providers can be swapped without touching callers.
type LLMClient interface {
	// Complete runs a plain chat completion and returns the text.
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
	// CompleteJSON runs a completion in JSON mode. Callers still parse the
	// result defensively; models drift out of format under load.
	CompleteJSON(ctx context.Context, system, user string) (string, error)
	// CreateEmbedding embeds one text for similarity search.
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	// IsEnabled reports whether the client has credentials.
	IsEnabled() bool
}
