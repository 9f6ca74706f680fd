// Package dedupe implements multi-signal duplicate detection and clustering
// for heterogeneous files.
//
// # Overview
//
// Given a batch of file descriptors (with inline content samples or local
// paths), the engine computes the signals each file supports: an exact
// SHA-256 content hash for everything, a 64-bit perceptual hash for images,
// and a semantic embedding vector for text when a collaborator is wired in.
// It then scores every comparable pair and partitions the batch into
// duplicate groups with a union-find structure.
//
// # Signal policy
//
// A pair's combined score short-circuits to 1.0 on an exact-hash match.
// Otherwise it is the maximum of the available non-exact signal scores:
// perceptual and embedding evidence are alternatives, not a quorum. Pairs
// sharing no signal axis are excluded from clustering entirely; an absent
// signal means "unknown", never "dissimilar".
//
// # Failure model
//
// Local failures degrade, structural failures reject:
//   - An unreadable file or undecodable image costs that file one signal axis.
//   - A failed embedding sub-batch costs its files the embedding axis.
//   - Signal contract violations (mismatched hash lengths or vector
//     dimensions) exclude that pair only.
//   - A batch over the configured maximum is rejected with BatchTooLargeError
//     before any work starts.
//   - Cancellation of the caller's context aborts the batch with no partial
//     output.
//
// # Usage
//
//	cfg := dedupe.DefaultConfig()
//	engine, err := dedupe.New(cfg, embedder, afero.NewOsFs(), logger)
//	if err != nil {
//	    return err
//	}
//
//	result, err := engine.Detect(ctx, &types.BatchRequest{
//	    BatchID: uuid.NewString(),
//	    Files:   descriptors,
//	})
//	if err != nil {
//	    return err
//	}
//
//	for _, group := range result.Groups {
//	    fmt.Printf("keep %s, delete %d copies (confidence %.2f)\n",
//	        group.Primary, len(group.Members)-1, group.Confidence)
//	}
//
// The engine holds no state between Detect calls; one Engine may serve many
// batches, concurrently if desired.
package dedupe
