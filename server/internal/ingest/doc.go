// Package ingest fetches the alert collection from an external source and
// loads it into the store.
//
// A Source knows one upstream format: the original REST endpoint (http),
// PagerDuty incidents (pagerduty) or a local YAML file (fixture). The Poller
// stamps every fetch with a sequence number so that a slow, older fetch can
// never overwrite the result of a newer one, and keeps a dismissible status
// of the last failure. A failed fetch never touches the store.
package ingest
