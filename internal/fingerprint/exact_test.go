package fingerprint

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sha256 of zero bytes; the digest for empty input is defined, not an error
const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestExactHashBufferedMatchesStreamed(t *testing.T) {
	h := NewExactHasher(afero.NewMemMapFs())

	inputs := [][]byte{
		nil,
		[]byte(""),
		[]byte("a"),
		[]byte("hello, world"),
		bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 100000),
	}
	for _, input := range inputs {
		buffered := h.HashBytes(input)
		streamed, err := h.HashReader(bytes.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, buffered, streamed, "buffered and streamed digests must agree")
		assert.Len(t, buffered, 64)
		assert.Equal(t, buffered, h.HashBytes(input), "digest must be stable across calls")
	}
}

func TestExactHashEmptyInput(t *testing.T) {
	h := NewExactHasher(afero.NewMemMapFs())
	assert.Equal(t, emptyDigest, h.HashBytes(nil))
}

func TestExactHashFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("the same bytes in a file")
	require.NoError(t, afero.WriteFile(fs, "/data/file.bin", content, 0o644))

	h := NewExactHasher(fs)
	fromFile, err := h.HashFile("/data/file.bin")
	require.NoError(t, err)
	assert.Equal(t, h.HashBytes(content), fromFile)
}

func TestExactHashFileMissing(t *testing.T) {
	h := NewExactHasher(afero.NewMemMapFs())
	_, err := h.HashFile("/does/not/exist")
	assert.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestExactHashReaderError(t *testing.T) {
	h := NewExactHasher(afero.NewMemMapFs())
	_, err := h.HashReader(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
