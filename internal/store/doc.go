// Package store persists generated records as JSON-Lines and tracks run
// progress. There is no database: the persisted unit is an append-only
// file with one standalone JSON object per line, written by exactly one
// process at a time.
package store
