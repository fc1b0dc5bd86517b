// Package prompt assembles generation prompts from instruction text,
// formatted conversation history, and retrieved context.
package prompt
