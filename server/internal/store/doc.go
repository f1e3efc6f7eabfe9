// Package store holds the current alert collection in memory. It is the only
// place alerts are mutated: Load replaces the collection after an ingestion
// run and UpsertAcknowledgment flips one alert's acknowledged flag with an
// atomic check-and-set.
package store
