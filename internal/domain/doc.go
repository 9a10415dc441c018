// Package domain contains the core business entities and value objects of
// the pipeline: documentation entries, question/answer pairs, persisted
// records, and batch job bookkeeping. It is independent of any specific
// provider, storage, or delivery mechanism.
package domain
