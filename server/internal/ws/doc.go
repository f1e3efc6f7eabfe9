// Package ws implements the dashboard stream at /ws/stream.
//
// The Hub pushes a snapshot (the GET /api/v1/snapshot payload) to each client
// on connect, whenever the store signals a change and every stream interval.
// Notification outcomes are pushed as they are recorded:
//
//	{"event": "snapshot",     "data": { ...snapshot... }}
//	{"event": "notification", "data": { ...notification outcome... }}
//
// The stream is a push of state the REST API already serves; it does not
// deliver new alerts on its own.
package ws
