// Package ingestion implements the item upload pipeline.
//
// The Pipeline type turns an upload request into a stored item:
//   - Resolving and validating the uploaded image
//   - Cropping it to the detected object, when a detector is configured
//   - Suggesting a category for items posted without one
//   - Generating the text and image embeddings concurrently on a worker pool
//   - Writing the item with both embeddings in a single transaction
//
// Unlike chat-style ingestion, embedding failures fail the upload: an item
// is never stored without the embeddings search relies on.
package ingestion
