// Package memory provides the in-process session.Store implementation.
package memory
