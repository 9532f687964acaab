// Package llm provides the language model layer for client analysis.
// A Generator performs one stateless text completion; the Adapter wraps a
// Generator with JSON extraction, bounded retry, and a failure taxonomy that
// separates unusable model output from transient upstream failures.
package llm
