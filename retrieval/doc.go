// Package retrieval composes query context from vector-store collections.
//
// Each query is embedded once and run against two collections: the
// project's shared data and the querying user's private data. The two
// result sets stay in labeled sections of the composed context block.
package retrieval
