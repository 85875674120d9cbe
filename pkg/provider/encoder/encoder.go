// Package encoder defines the text-embedding capability used to compute
// sentence vectors for similarity and drift scoring.
package encoder

import "context"

// Provider turns text into dense vectors. Implementations wrap a specific
// embedding model, whether local (Ollama) or hosted (OpenAI).
type Provider interface {
	// Embed returns the embedding vector for a single piece of text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the length of vectors this provider produces.
	Dimensions() int

	// ModelID identifies the underlying model, for logging and the
	// /health response.
	ModelID() string
}
