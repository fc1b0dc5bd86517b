package badger

import "fmt"

// Key prefixes for different data types
const (
	collectionPrefix = "colrec"
	chunkPrefix      = "chkrec"
)

// makeCollectionKey generates the marker key for a collection.
func makeCollectionKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, name))
}

// makeChunkKey generates the key for a chunk within a collection.
func makeChunkKey(collection, chunkID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", chunkPrefix, collection, chunkID))
}

// makeChunkScanPrefix generates the iteration prefix covering all chunks
// of one collection.
func makeChunkScanPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, collection))
}
