// Package types defines shared Go types used by both the server and alertctl.
// Alert is the canonical in-memory representation of one incident record,
// independent of the upstream record format; the response types mirror the
// JSON bodies of the REST API.
package types
