// Package bluejeans_tools provides MCP tools for the BlueJeans meeting backend.
//
// Read tools (always registered):
//   - bluejeans_backend_info: capability descriptor of the backend
//   - bluejeans_get_user: enterprise account lookup by email, single or batch
//   - bluejeans_provision_meeting: idempotent meeting creation for a host record
//   - bluejeans_get_meeting: scheduled meeting by record key or ids
//
// Write tools (registered when the server is not read-only):
//   - bluejeans_update_meeting: change title, time, timezone or flags
//   - bluejeans_delete_meeting: delete the vendor meeting only
//   - bluejeans_release_meeting: delete the vendor meeting and the host record
package bluejeans_tools
