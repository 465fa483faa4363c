// Package backend is the meeting backend the office hours queue calls.
//
// It describes the BlueJeans capability to the host (PublicData), lets every
// assignee use it (IsAuthorized) and provisions one meeting per metadata
// record (SaveUserMeeting). The host persists the returned Metadata and
// passes it back on the next call; a record carrying a meeting id is treated
// as provisioned and returned as is.
//
// SaveUserMeeting does not guard against two concurrent calls for the same
// record. Callers that need that guarantee go through store.Provisioner.
package backend
