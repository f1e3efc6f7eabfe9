// Package api implements the HTTP REST API for alertdesk-server.
//
// New(deps) returns an http.Handler that serves:
//
//	GET    /api/v1/health              ingest state plus the tile counts
//	GET    /api/v1/alerts              filtered alerts; metrics over the full set
//	GET    /api/v1/alerts/{id}         single alert; 404 if unknown
//	POST   /api/v1/alerts/{id}/ack     acknowledge; 409 if already acknowledged
//	GET    /api/v1/metrics             total / acknowledged / unacknowledged
//	GET    /api/v1/teams               distinct team names
//	GET    /api/v1/webhooks            team bindings, URLs redacted
//	PUT    /api/v1/webhooks/{team}     bind a team ("_default" for the fallback)
//	DELETE /api/v1/webhooks/{team}     unbind a team
//	GET    /api/v1/notifications       recent notification outcomes
//	POST   /api/v1/refresh             refetch from the incident source now
//	DELETE /api/v1/status/error        dismiss the last ingest error
//	GET    /api/v1/search?q=           fuzzy search over code, team and summary
//	GET    /api/v1/export?format=      csv|xlsx export (501 until implemented)
//	GET    /api/v1/snapshot            everything the dashboard renders
//
// All endpoints respond with application/json except a successful export,
// and return 405 for the wrong method. Filters on /alerts and /export are
// parsed by package filter. No external HTTP framework is used.
package api
