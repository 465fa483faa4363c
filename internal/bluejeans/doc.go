// Package bluejeans is a client for the BlueJeans REST API.
//
// A Client authenticates with the OAuth2 client-credentials grant, remembers
// the enterprise id granted in the token scope and exposes the handful of
// calls the office hours queue needs:
//
//   - GetUser looks up an enterprise user by email
//   - CreateMeeting, ReadMeeting, UpdateMeeting and DeleteMeeting manage
//     scheduled meetings
//
// Token refresh happens lazily inside each call and is serialized by a mutex.
// By default the stored expiry is already in the past when it is written, so
// every call fetches a fresh token; WithTokenExpiryMode(ExpiryModeLifetime)
// reuses a token for its advertised lifetime minus 60 seconds.
//
// Requests are traced with OpenTelemetry and, when WithMetrics is given,
// counted per operation.
package bluejeans
