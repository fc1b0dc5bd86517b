// Package vectorstore defines the nearest-neighbor search collaborator
// consumed by the query pipeline.
//
// A Store holds named Collections of embedded document chunks: one shared
// collection per project plus one private collection per user within a
// project. The query core depends only on these interfaces; the badger
// subpackage supplies the shipped implementation.
package vectorstore
