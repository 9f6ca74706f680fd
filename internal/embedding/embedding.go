// Package embedding defines the boundary to the external feature-extraction
// collaborator. The engine treats the embedder as an injected capability: it
// never owns model state, and a missing or failing embedder degrades files to
// "no embedding signal" instead of failing the batch.
package embedding

import (
	"context"
	"fmt"
)

// Embedder supplies one fixed-dimension vector per input, in input order.
// Failures are collaborator-level: a failed call means no embeddings for that
// sub-batch, with no per-item distinction.
type Embedder interface {
	// Embed returns one vector per input string. Inputs must not exceed
	// MaxBatchSize.
	Embed(ctx context.Context, inputs []string) ([][]float32, error)

	// MaxBatchSize is the largest number of inputs one Embed call accepts.
	MaxBatchSize() int
}

// UnavailableError indicates the collaborator could not be reached or could
// not serve the call. The engine proceeds on locally computable signals.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("embedding collaborator unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
