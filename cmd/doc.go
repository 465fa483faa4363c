// Package cmd implements the command-line interface for ohq-bluejeans.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide tools for AI assistants
//   - backend info: Print the backend capability descriptor
//   - user get: Look up enterprise accounts by email
//   - meeting create|get|update|delete: Manage scheduled meetings directly
//   - provision: Provision the meeting of a host record
//   - release: Delete the meeting of a host record and the record
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Configuration is read from the environment, an optional .env file and an
// optional config file; see internal/config.
package cmd
