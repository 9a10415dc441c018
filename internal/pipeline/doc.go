// Package pipeline drives corpus generation: it walks the split entries,
// determines how many pairs each still needs, dispatches prompts to the
// configured provider (one call at a time, or one asynchronous batch job),
// and persists parsed pairs incrementally so an interrupted run can resume
// without duplicating completed work.
package pipeline
