package pipeline

import "errors"

// Common errors returned by the pipeline runners.
var (
	ErrNilProvider      = errors.New("provider cannot be nil")
	ErrNilPromptBuilder = errors.New("prompt builder cannot be nil")
	ErrNilRecordStore   = errors.New("record store cannot be nil")
	ErrNilMarker        = errors.New("progress marker cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
	ErrInvalidTarget    = errors.New("target pairs per entry must be positive")
	ErrInvalidResume    = errors.New("invalid resume mode")
	ErrPollTimeout      = errors.New("batch job did not end within the poll wait limit")
)
