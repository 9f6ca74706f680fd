package dedupe

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/filesweep/filesweep/internal/embedding"
	"github.com/filesweep/filesweep/internal/fingerprint"
	"github.com/filesweep/filesweep/internal/similarity"
	"github.com/filesweep/filesweep/internal/types"
)

// Engine is the multi-signal duplicate detection engine. It is stateless
// between batches: each Detect call owns all of its intermediate fingerprint
// and pair-score data and discards it when the call returns.
type Engine struct {
	cfg        Config
	fs         afero.Fs
	embedder   embedding.Embedder
	exact      *fingerprint.ExactHasher
	perceptual *fingerprint.PerceptualHasher
	logger     *log.Logger
}

// New creates an engine. The embedder may be nil, in which case the embedding
// axis is simply absent and detection runs on exact and perceptual signals.
func New(cfg Config, embedder embedding.Embedder, fs afero.Fs, logger *log.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Engine{
		cfg:        cfg,
		fs:         fs,
		embedder:   embedder,
		exact:      fingerprint.NewExactHasher(fs),
		perceptual: fingerprint.NewPerceptualHasher(fs),
		logger:     logger,
	}, nil
}

// Detect partitions the batch into duplicate groups plus the residual set of
// files with no duplicates.
//
// Local signal failures (unreadable file, undecodable image, unreachable
// embedding collaborator) never fail the batch: the affected files lose that
// signal axis and everything else proceeds. Only structural violations fail
// the whole request: an oversized batch, malformed descriptors, or
// cancellation of ctx, in which case no partial output is returned.
func (e *Engine) Detect(ctx context.Context, req *types.BatchRequest) (*types.BatchResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch request: %w", err)
	}
	if len(req.Files) > e.cfg.MaxBatchSize {
		return nil, &BatchTooLargeError{Size: len(req.Files), Max: e.cfg.MaxBatchSize}
	}

	threshold := e.cfg.Threshold
	if req.ThresholdOverride != nil {
		threshold = *req.ThresholdOverride
	}

	prints, err := e.fingerprintAll(ctx, req.Files)
	if err != nil {
		return nil, err
	}

	embedCalls, err := e.attachEmbeddings(ctx, req.Files, prints)
	if err != nil {
		return nil, err
	}

	pairs, skipped, err := e.scorePairs(ctx, req.Files, prints)
	if err != nil {
		return nil, err
	}

	// Apply unions in the deterministic pair order produced by scorePairs so
	// the set of triggering edges, and therefore group confidence, is stable
	// across runs.
	uf := newUnionFind(len(req.Files))
	index := make(map[string]int, len(req.Files))
	for i := range req.Files {
		index[req.Files[i].ID] = i
	}
	var edges []triggerEdge
	for i := range pairs {
		p := &pairs[i]
		if p.Combined < threshold {
			continue
		}
		a, b := index[p.FileA], index[p.FileB]
		if uf.union(a, b) {
			edges = append(edges, triggerEdge{a: a, combined: p.Combined})
		}
	}

	stats := types.BatchStats{
		FilesSubmitted:    len(req.Files),
		ComparisonsMade:   len(pairs),
		IncomparablePairs: skipped,
		EmbedCalls:        embedCalls,
	}
	result := assembleResult(req, uf, edges, stats)
	result.Stats.ProcessingTimeMs = time.Since(start).Milliseconds()

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("internal: malformed result: %w", err)
	}

	if e.logger != nil {
		e.logger.Info("batch complete",
			"batch", req.BatchID,
			"files", stats.FilesSubmitted,
			"groups", result.Stats.GroupCount,
			"duplicates", result.Stats.DuplicateFiles,
			"comparisons", stats.ComparisonsMade,
			"skipped", stats.IncomparablePairs,
			"took", time.Since(start))
	}
	return result, nil
}

// fingerprintAll computes exact and perceptual signals for every file,
// bounded by the configured parallelism. Results are keyed by file index, not
// completion order, so scheduling cannot affect the output.
func (e *Engine) fingerprintAll(ctx context.Context, files []types.FileDescriptor) ([]types.FingerprintSet, error) {
	prints := make([]types.FingerprintSet, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Parallelism)
	for i := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			prints[i] = e.fingerprintOne(&files[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prints, nil
}

// fingerprintOne computes the locally owned signals for one file. Failures
// are local: they cost the file that signal axis and nothing else.
func (e *Engine) fingerprintOne(f *types.FileDescriptor) types.FingerprintSet {
	var fp types.FingerprintSet

	switch {
	case len(f.Sample) > 0:
		fp.ExactHash = e.exact.HashBytes(f.Sample)
		if f.MediaType == types.MediaImage {
			hash, err := e.perceptual.HashBytes(f.Sample)
			if err != nil {
				e.logWarn("no perceptual signal", "file", f.ID, "err", err)
			} else {
				fp.PerceptualHash = hash
			}
		}
	case f.Path != "":
		hash, err := e.exact.HashFile(f.Path)
		if err != nil {
			e.logWarn("no exact signal", "file", f.ID, "err", err)
		} else {
			fp.ExactHash = hash
		}
		if f.MediaType == types.MediaImage {
			phash, err := e.perceptual.HashFile(f.Path)
			if err != nil {
				e.logWarn("no perceptual signal", "file", f.ID, "err", err)
			} else {
				fp.PerceptualHash = phash
			}
		}
	}
	return fp
}

// attachEmbeddings asks the collaborator for vectors for text-class files, in
// sub-batches. A failed sub-batch degrades only its own files to "no
// embedding signal"; the rest of the batch is unaffected. Returns the number
// of collaborator calls made.
func (e *Engine) attachEmbeddings(ctx context.Context, files []types.FileDescriptor, prints []types.FingerprintSet) (int, error) {
	if e.embedder == nil {
		return 0, nil
	}

	var indexes []int
	var inputs []string
	for i := range files {
		if files[i].MediaType != types.MediaText {
			continue
		}
		text, ok := e.sampleText(&files[i])
		if !ok {
			continue
		}
		indexes = append(indexes, i)
		inputs = append(inputs, text)
	}
	if len(inputs) == 0 {
		return 0, nil
	}

	batchSize := e.cfg.EmbedBatchSize
	if limit := e.embedder.MaxBatchSize(); limit > 0 && limit < batchSize {
		batchSize = limit
	}

	calls := 0
	for lo := 0; lo < len(inputs); lo += batchSize {
		hi := lo + batchSize
		if hi > len(inputs) {
			hi = len(inputs)
		}

		callCtx, cancel := context.WithTimeout(ctx, e.cfg.EmbedTimeout)
		vectors, err := e.embedder.Embed(callCtx, inputs[lo:hi])
		cancel()
		calls++

		if err != nil {
			// Caller-initiated cancellation aborts the batch; collaborator
			// failure only degrades this sub-batch
			if ctx.Err() != nil {
				return calls, ctx.Err()
			}
			e.logWarn("embedding sub-batch degraded", "files", hi-lo, "err", err)
			continue
		}
		if len(vectors) != hi-lo {
			e.logWarn("embedding sub-batch degraded",
				"files", hi-lo, "err", fmt.Errorf("got %d vectors for %d inputs", len(vectors), hi-lo))
			continue
		}
		for k, vec := range vectors {
			prints[indexes[lo+k]].Embedding = vec
		}
	}
	return calls, nil
}

// sampleText returns the bounded text sample for a file, from the inline
// sample or the head of the file at its path.
func (e *Engine) sampleText(f *types.FileDescriptor) (string, bool) {
	if len(f.Sample) > 0 {
		sample := f.Sample
		if len(sample) > e.cfg.MaxSampleBytes {
			sample = sample[:e.cfg.MaxSampleBytes]
		}
		return string(sample), true
	}
	if f.Path == "" {
		return "", false
	}
	file, err := e.fs.Open(f.Path)
	if err != nil {
		e.logWarn("no embedding sample", "file", f.ID, "err", err)
		return "", false
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, int64(e.cfg.MaxSampleBytes)))
	if err != nil {
		e.logWarn("no embedding sample", "file", f.ID, "err", err)
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// scorePairs scores every pair of files sharing at least one signal axis.
// The comparable pair list is generated in ascending (i, j) order and each
// worker writes into its own slot of a preallocated slice, so the returned
// order is deterministic regardless of scheduling. Returns the scored pairs
// and the count of incomparable pairs that were skipped.
func (e *Engine) scorePairs(ctx context.Context, files []types.FileDescriptor, prints []types.FingerprintSet) ([]types.PairScore, int, error) {
	type candidate struct{ i, j int }
	var cands []candidate
	skipped := 0
	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			if prints[i].ComparableWith(&prints[j]) {
				cands = append(cands, candidate{i, j})
			} else {
				skipped++
			}
		}
	}

	scored := make([]*types.PairScore, len(cands))

	g, ctx := errgroup.WithContext(ctx)
	workers := e.cfg.Parallelism
	if workers > len(cands) {
		workers = len(cands)
	}
	chunk := 0
	if workers > 0 {
		chunk = (len(cands) + workers - 1) / workers
	}
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(cands) {
			hi = len(cands)
		}
		g.Go(func() error {
			for k := lo; k < hi; k++ {
				if k%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				c := cands[k]
				res, err := similarity.Compare(&prints[c.i], &prints[c.j])
				if err != nil {
					// Contract violation between the pair's signals: log and
					// exclude the pair, nothing else
					e.logWarn("pair excluded",
						"a", files[c.i].ID, "b", files[c.j].ID, "err", err)
					continue
				}
				if !res.Comparable {
					continue
				}
				a, b := types.OrderPair(files[c.i].ID, files[c.j].ID)
				scored[k] = &types.PairScore{
					FileA:           a,
					FileB:           b,
					ExactScore:      res.Exact,
					PerceptualScore: res.Perceptual,
					EmbeddingScore:  res.Embedding,
					Combined:        res.Combined,
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	pairs := make([]types.PairScore, 0, len(cands))
	for _, p := range scored {
		if p == nil {
			skipped++
			continue
		}
		pairs = append(pairs, *p)
	}
	return pairs, skipped, nil
}

func (e *Engine) logWarn(msg string, keyvals ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, keyvals...)
	}
}

// triggerEdge records one union-triggering pair; a is either endpoint's index
// (they share a set after the union).
type triggerEdge struct {
	a        int
	combined float64
}
