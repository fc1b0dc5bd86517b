// Package engine orchestrates answer generation: it resolves the
// session, handles chat directives, detects query intent, composes
// retrieval context, assembles the prompt, and drives the language
// model in blocking or streaming mode.
package engine
