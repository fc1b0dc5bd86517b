package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier derived from content.
// Identical content always produces identical IDs, which keeps
// re-ingestion of the same document idempotent.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String returns the ID in fixed-width hexadecimal, the form used for
// chunk identifiers.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleHuman represents the querying user.
	RoleHuman Role = iota + 1
	// RoleAI represents the assistant.
	RoleAI
)

// String returns the role label used when rendering conversation history.
func (r Role) String() string {
	switch r {
	case RoleHuman:
		return "Human"
	case RoleAI:
		return "AI"
	default:
		return "Unknown"
	}
}

// Turn is a single message in a conversation, in chronological order
// within its session.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Chunk is an embedded document fragment stored in a vector-store collection.
type Chunk struct {
	Id       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// ScoredChunk is a chunk returned from a nearest-neighbor query together
// with its relevance score. Higher scores are more relevant.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}
