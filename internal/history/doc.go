// Package history records what the dispatcher did with each recognition
// result.
//
// Every dispatched utterance becomes one Record: the recognised text and
// emotion, the resolution stage that handled it, the actions executed
// and the resulting device state. Records are stored in the
// dispatch_history SQLite table and served by GET /api/v1/history.
//
// Only the audit trail is persisted; device state itself is never
// restored from history.
package history
