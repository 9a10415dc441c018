// Package corpus loads the documentation bundle and splits it into
// per-page entries for generation.
package corpus
