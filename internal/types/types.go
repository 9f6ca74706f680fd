package types

import (
	"fmt"
	"strings"
)

// MediaType classifies a file for signal selection. Image-class files get a
// perceptual hash, text-class files are candidates for embedding, everything
// falls back to the exact content hash.
type MediaType string

const (
	MediaBinary MediaType = "binary"
	MediaImage  MediaType = "image"
	MediaText   MediaType = "text"
)

// IsValid checks if the media type value is valid
func (m MediaType) IsValid() bool {
	switch m {
	case MediaBinary, MediaImage, MediaText:
		return true
	}
	return false
}

// FileDescriptor describes one file submitted for duplicate detection.
// Exactly one of Sample or Path supplies the file's bytes; a descriptor with
// neither can still be admitted but will never produce a signal.
// Descriptors are immutable once submitted to the engine.
type FileDescriptor struct {
	// ID is an opaque identifier, unique within the batch
	ID string `json:"id"`

	// Name is the display name of the file (optional, reporting only)
	Name string `json:"name,omitempty"`

	// Size is the declared size in bytes
	Size int64 `json:"size"`

	// MediaType is the declared classification (binary/image/text)
	MediaType MediaType `json:"media_type"`

	// Sample is an inline bounded content sample. Mutually exclusive with Path.
	Sample []byte `json:"sample,omitempty"`

	// Path is a resolvable local path to the file's bytes. Mutually exclusive
	// with Sample.
	Path string `json:"path,omitempty"`
}

// Validate checks if the descriptor has valid field values
func (f *FileDescriptor) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("id is required")
	}
	if f.Size < 0 {
		return fmt.Errorf("size cannot be negative (got %d)", f.Size)
	}
	if !f.MediaType.IsValid() {
		return fmt.Errorf("invalid media type: %s", f.MediaType)
	}
	if len(f.Sample) > 0 && f.Path != "" {
		return fmt.Errorf("sample and path are mutually exclusive (file %s)", f.ID)
	}
	return nil
}

// FingerprintSet is the per-file bag of computed signals. Any subset may be
// populated; an absent signal means "incomparable on that axis", not zero
// similarity.
type FingerprintSet struct {
	// ExactHash is the 64-character lowercase hex SHA-256 content digest
	ExactHash string `json:"exact_hash,omitempty"`

	// PerceptualHash is the fixed-length perceptual signature (image files only)
	PerceptualHash string `json:"perceptual_hash,omitempty"`

	// Embedding is the fixed-dimension semantic vector from the external
	// feature-extraction collaborator
	Embedding []float32 `json:"embedding,omitempty"`
}

// HasAnySignal reports whether at least one signal was computed.
func (fp *FingerprintSet) HasAnySignal() bool {
	return fp.ExactHash != "" || fp.PerceptualHash != "" || len(fp.Embedding) > 0
}

// ComparableWith reports whether the two sets share at least one signal axis.
func (fp *FingerprintSet) ComparableWith(other *FingerprintSet) bool {
	if fp.ExactHash != "" && other.ExactHash != "" {
		return true
	}
	if fp.PerceptualHash != "" && other.PerceptualHash != "" {
		return true
	}
	if len(fp.Embedding) > 0 && len(other.Embedding) > 0 {
		return true
	}
	return false
}

// PairScore holds the similarity scores for one ordered pair of files.
// FileA is always lexicographically less than FileB so (a,b) and (b,a) never
// both appear. Per-signal scores are nil when that axis was not comparable.
type PairScore struct {
	FileA string `json:"file_a"`
	FileB string `json:"file_b"`

	ExactScore      *float64 `json:"exact_score,omitempty"`
	PerceptualScore *float64 `json:"perceptual_score,omitempty"`
	EmbeddingScore  *float64 `json:"embedding_score,omitempty"`

	// Combined is the single value compared against the clustering threshold.
	// It is 1.0 when the exact hashes match, otherwise the maximum of the
	// available non-exact scores.
	Combined float64 `json:"combined"`
}

// OrderPair returns the two identifiers in lexicographic order.
func OrderPair(a, b string) (string, string) {
	if strings.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// Validate checks if the pair score has valid field values
func (p *PairScore) Validate() error {
	if p.FileA == "" || p.FileB == "" {
		return fmt.Errorf("both file identifiers are required")
	}
	if p.FileA >= p.FileB {
		return fmt.Errorf("pair must be lexicographically ordered (got %q, %q)", p.FileA, p.FileB)
	}
	if p.Combined < 0.0 || p.Combined > 1.0 {
		return fmt.Errorf("combined score must be between 0.0 and 1.0 (got %.2f)", p.Combined)
	}
	for name, s := range map[string]*float64{
		"exact":      p.ExactScore,
		"perceptual": p.PerceptualScore,
		"embedding":  p.EmbeddingScore,
	} {
		if s != nil && (*s < 0.0 || *s > 1.0) {
			return fmt.Errorf("%s score must be between 0.0 and 1.0 (got %.2f)", name, *s)
		}
	}
	return nil
}

// DuplicateGroup is a set of two or more files believed to be duplicates.
type DuplicateGroup struct {
	// Members are the identifiers of all files in the group
	Members []string `json:"members"`

	// Primary is the member that should be kept: the largest file, ties broken
	// by earliest position in the input batch
	Primary string `json:"primary"`

	// Confidence is the minimum combined score among the pairs that linked the
	// group together (0.0 to 1.0). The group is only as confident as its
	// weakest internal pair.
	Confidence float64 `json:"confidence"`

	// TotalSize is the sum of the declared sizes of all members
	TotalSize int64 `json:"total_size"`

	// SpaceWasted is TotalSize minus the primary's size: the bytes reclaimable
	// by deleting everything but the primary
	SpaceWasted int64 `json:"space_wasted"`
}

// Validate checks if the group has valid field values
func (g *DuplicateGroup) Validate() error {
	if len(g.Members) < 2 {
		return fmt.Errorf("group must have at least 2 members (got %d)", len(g.Members))
	}
	if g.Confidence < 0.0 || g.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", g.Confidence)
	}
	found := false
	for _, m := range g.Members {
		if m == g.Primary {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("primary %q is not a group member", g.Primary)
	}
	if g.SpaceWasted < 0 {
		return fmt.Errorf("space_wasted cannot be negative (got %d)", g.SpaceWasted)
	}
	return nil
}

// BatchRequest is one invocation of the engine. Batches are independent; no
// state survives between them.
type BatchRequest struct {
	// BatchID is an opaque identifier used for logging and quota accounting only
	BatchID string `json:"batch_id"`

	// Files is the ordered list of descriptors to examine
	Files []FileDescriptor `json:"files"`

	// ThresholdOverride, when set, replaces the configured similarity
	// threshold for this batch. Must be in [0,1].
	ThresholdOverride *float64 `json:"threshold_override,omitempty"`
}

// Validate checks if the request has valid field values
func (r *BatchRequest) Validate() error {
	if r.ThresholdOverride != nil && (*r.ThresholdOverride < 0.0 || *r.ThresholdOverride > 1.0) {
		return fmt.Errorf("threshold override must be between 0.0 and 1.0 (got %.2f)", *r.ThresholdOverride)
	}
	seen := make(map[string]struct{}, len(r.Files))
	for i := range r.Files {
		f := &r.Files[i]
		if err := f.Validate(); err != nil {
			return fmt.Errorf("file %d: %w", i, err)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("duplicate file id %q in batch", f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return nil
}

// BatchStats provides metrics about one detection run
type BatchStats struct {
	// FilesSubmitted is the number of files in the batch
	FilesSubmitted int `json:"files_submitted"`

	// ComparisonsMade is the number of pairs actually scored
	ComparisonsMade int `json:"comparisons_made"`

	// IncomparablePairs is the number of pairs skipped for sharing no signal
	IncomparablePairs int `json:"incomparable_pairs"`

	// EmbedCalls is the number of sub-batch calls made to the embedding
	// collaborator
	EmbedCalls int `json:"embed_calls"`

	// GroupCount is the number of duplicate groups found
	GroupCount int `json:"group_count"`

	// DuplicateFiles is the total number of files that landed in a group
	DuplicateFiles int `json:"duplicate_files"`

	// SpaceWasted is the total reclaimable bytes across all groups
	SpaceWasted int64 `json:"space_wasted"`

	// ProcessingTimeMs is the wall time of the run in milliseconds
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// BatchResult is the externally consumed output of one detection run.
type BatchResult struct {
	// BatchID echoes the request identifier
	BatchID string `json:"batch_id"`

	// Groups is ordered by descending confidence, ties broken by ascending
	// primary identifier
	Groups []DuplicateGroup `json:"groups"`

	// Ungrouped lists the identifiers of files with no detected duplicate,
	// in input batch order
	Ungrouped []string `json:"ungrouped"`

	Stats BatchStats `json:"stats"`
}

// Validate checks the accounting invariant: every admitted file appears
// exactly once, either in a group or in the ungrouped list.
func (r *BatchResult) Validate() error {
	grouped := 0
	seen := make(map[string]struct{})
	for i := range r.Groups {
		g := &r.Groups[i]
		if err := g.Validate(); err != nil {
			return fmt.Errorf("group %d: %w", i, err)
		}
		for _, m := range g.Members {
			if _, dup := seen[m]; dup {
				return fmt.Errorf("file %q appears in more than one group", m)
			}
			seen[m] = struct{}{}
		}
		grouped += len(g.Members)
	}
	for _, id := range r.Ungrouped {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("file %q is both grouped and ungrouped", id)
		}
		seen[id] = struct{}{}
	}
	total := grouped + len(r.Ungrouped)
	if total != r.Stats.FilesSubmitted {
		return fmt.Errorf("grouped (%d) + ungrouped (%d) does not equal files submitted (%d)",
			grouped, len(r.Ungrouped), r.Stats.FilesSubmitted)
	}
	return nil
}
