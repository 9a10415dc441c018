package generation

import "errors"

// Common errors returned by providers and the provider factory.
var (
	// ErrProvider is returned when the provider reports a non-success
	// HTTP/SDK status for a request.
	ErrProvider = errors.New("provider request failed")

	// ErrInvalidResponse is returned when a provider reply cannot be parsed
	// or is structurally malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the provider blocks the content due
	// to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the provider configuration is
	// invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrBatchUnsupported is returned when batch mode is requested of a
	// provider without a batch API.
	ErrBatchUnsupported = errors.New("provider does not support batch submission")

	// ErrUnknownProvider is returned by the factory for an unrecognized
	// provider name.
	ErrUnknownProvider = errors.New("unknown provider")
)
