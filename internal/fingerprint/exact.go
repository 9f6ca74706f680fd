package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// ExactHasher computes content digests for bit-identical duplicate detection.
// The digest is SHA-256 rendered as 64 lowercase hex characters, and is the
// same whether the content arrives as a buffer, a stream, or a path.
type ExactHasher struct {
	fs afero.Fs
}

// NewExactHasher creates an ExactHasher that resolves paths against fs.
func NewExactHasher(fs afero.Fs) *ExactHasher {
	return &ExactHasher{fs: fs}
}

// HashBytes digests a fully buffered content sample.
func (h *ExactHasher) HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashReader digests a sequential stream of unknown length. Memory stays
// bounded regardless of input size. An underlying read error fails the hash;
// the caller treats that as a missing signal for the file, not a batch error.
func (h *ExactHasher) HashReader(r io.Reader) (string, error) {
	digest := sha256.New()
	if _, err := io.Copy(digest, r); err != nil {
		return "", fmt.Errorf("reading content stream: %w", err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// HashFile streams the file at path through the digest.
func (h *ExactHasher) HashFile(path string) (string, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	sum, err := h.HashReader(f)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return sum, nil
}
