// Package notify delivers acknowledgment notifications to chat webhooks.
//
// A Bindings table maps team names to webhook URLs with an optional default.
// The Dispatcher resolves the endpoint for an alert and makes exactly one
// POST of a Google Chat style {"text": ...} body. There is no retry and no
// queue; only transport errors count as delivery failures, the response
// status is logged and otherwise ignored.
package notify
