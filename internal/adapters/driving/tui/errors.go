package tui

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("tui: session service is required")

// ErrMissingPipeline is returned when the pipeline service is not provided.
var ErrMissingPipeline = errors.New("tui: pipeline service is required")
