// Package session defines conversation sessions and the store that
// manages them.
//
// A session is an ordered conversation history with metadata, unique
// within its (user, project) scope. State is process-lifetime only: the
// Store interface exists so a durable keyed backend can be swapped in,
// but the shipped implementation (session/memory) holds everything in
// memory and accepts loss on restart.
package session
