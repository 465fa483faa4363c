// Package batch provides helpers for tools that accept one or many ids.
//
// This package includes helpers for:
//   - Parsing parameters that accept both single values and arrays
//   - Running an operation per id and tolerating partial failures
//   - Formatting batch results in a consistent structure
package batch
