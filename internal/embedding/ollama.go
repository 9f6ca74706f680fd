package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// defaultMaxBatch matches the model server's processing limit
	defaultMaxBatch = 32

	// defaultMaxConcurrent caps in-flight calls to the model server
	defaultMaxConcurrent = 4

	// defaultCallsPerSecond keeps a local model server responsive for other
	// tenants
	defaultCallsPerSecond = 10
)

// OllamaEmbedder serves the Embedder boundary from a local Ollama model.
// Calls are capped by a concurrency semaphore and a rate limiter so a large
// batch cannot saturate the model server.
type OllamaEmbedder struct {
	embedder *embeddings.EmbedderImpl
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	maxBatch int
}

// OllamaOption customizes an OllamaEmbedder.
type OllamaOption func(*ollamaOptions)

type ollamaOptions struct {
	serverURL      string
	maxBatch       int
	maxConcurrent  int
	callsPerSecond float64
}

// WithServerURL points the client at a non-default Ollama server.
func WithServerURL(url string) OllamaOption {
	return func(o *ollamaOptions) { o.serverURL = url }
}

// WithMaxBatch overrides the per-call input limit.
func WithMaxBatch(n int) OllamaOption {
	return func(o *ollamaOptions) { o.maxBatch = n }
}

// WithMaxConcurrent overrides the in-flight call cap.
func WithMaxConcurrent(n int) OllamaOption {
	return func(o *ollamaOptions) { o.maxConcurrent = n }
}

// NewOllamaEmbedder creates an embedder backed by the named Ollama model
// (e.g. "nomic-embed-text").
func NewOllamaEmbedder(model string, opts ...OllamaOption) (*OllamaEmbedder, error) {
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	options := ollamaOptions{
		maxBatch:       defaultMaxBatch,
		maxConcurrent:  defaultMaxConcurrent,
		callsPerSecond: defaultCallsPerSecond,
	}
	for _, opt := range opts {
		opt(&options)
	}

	llmOpts := []ollama.Option{ollama.WithModel(model)}
	if options.serverURL != "" {
		llmOpts = append(llmOpts, ollama.WithServerURL(options.serverURL))
	}
	llm, err := ollama.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &OllamaEmbedder{
		embedder: embedder,
		sem:      semaphore.NewWeighted(int64(options.maxConcurrent)),
		limiter:  rate.NewLimiter(rate.Limit(options.callsPerSecond), 1),
		maxBatch: options.maxBatch,
	}, nil
}

// Embed implements Embedder.
func (o *OllamaEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if len(inputs) > o.maxBatch {
		return nil, fmt.Errorf("batch of %d exceeds embed limit %d", len(inputs), o.maxBatch)
	}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.sem.Release(1)

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := o.embedder.EmbedDocuments(ctx, inputs)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	if len(vectors) != len(inputs) {
		return nil, &UnavailableError{
			Err: fmt.Errorf("got %d vectors for %d inputs", len(vectors), len(inputs)),
		}
	}
	return vectors, nil
}

// MaxBatchSize implements Embedder.
func (o *OllamaEmbedder) MaxBatchSize() int {
	return o.maxBatch
}
