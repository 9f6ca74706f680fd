package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnavailableErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&UnavailableError{Err: cause})

	var unavail *UnavailableError
	assert.True(t, errors.As(err, &unavail))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewOllamaEmbedderRequiresModel(t *testing.T) {
	_, err := NewOllamaEmbedder("")
	assert.Error(t, err)
}

func TestOllamaEmbedderRejectsOversizedBatch(t *testing.T) {
	// Client construction does not dial; the batch-size check fires before
	// any network activity
	embedder, err := NewOllamaEmbedder("nomic-embed-text", WithMaxBatch(2))
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.MaxBatchSize())

	_, err = embedder.Embed(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds embed limit")
}

func TestOllamaEmbedderEmptyInput(t *testing.T) {
	embedder, err := NewOllamaEmbedder("nomic-embed-text")
	require.NoError(t, err)

	vectors, err := embedder.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}
