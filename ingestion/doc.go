// Package ingestion feeds documents into the vector store.
//
// The Pipeline type splits transcripts and project reference data into
// overlapping chunks, embeds them concurrently on a worker pool, and
// writes them to the appropriate collection: per-user collections for
// meeting transcripts, shared collections for seeded project data.
package ingestion
