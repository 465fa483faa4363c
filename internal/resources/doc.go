// Package resources provides read-only MCP resources for the BlueJeans
// backend: the capability descriptor at bluejeans://backend and stored host
// records at bluejeans://records/{key}.
package resources
