// Package store persists backend metadata records and serializes work on them.
//
// A Store maps record keys to backend.Metadata. A Locker hands out one holder
// per key at a time. Memory implementations serve a single process; the Redis
// implementations share records and locks between replicas.
//
// Provisioner combines both: it locks the key, loads the record, calls
// SaveUserMeeting and persists the result before unlocking.
package store
