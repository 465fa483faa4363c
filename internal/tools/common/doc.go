// Package common provides shared helpers for MCP tool implementations:
// argument extraction, JSON results and the instrumentation wrapper applied
// to every registered tool.
package common
