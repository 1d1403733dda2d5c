// Package reembed backfills item embeddings.
//
// A Reembedder walks the catalog in ID order, batch by batch, and computes
// the text and image embeddings that are missing (or all of them when
// forced). Text embeddings for a batch are requested in one call; image
// embeddings run concurrently on a worker pool. Every embedding call is
// retried with exponential backoff, and the updated items of a batch are
// written in a single transaction.
//
// When a checkpoint repository is configured, the last processed ID is
// saved after each batch so an interrupted run resumes where it stopped.
package reembed
