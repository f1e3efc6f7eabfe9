// Package auth provides API key middleware for the alertdesk REST API.
//
// RequireAPIKey(mode, header, key) wraps an http.Handler. Safe methods (GET,
// HEAD, OPTIONS) always pass so the dashboard stays readable; mutating
// methods must carry the key in the named header. When mode != "apikey" or
// key == "", every request passes through (local development).
package auth
