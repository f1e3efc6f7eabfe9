// Package ack implements the one-way acknowledgment of alerts.
//
// The Tracker commits the transition in the store synchronously, resolves
// the notification endpoint synchronously, and delivers the notification in
// the background on its own context. A delivery failure is recorded but
// never rolls the acknowledgment back.
package ack
