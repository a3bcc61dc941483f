package generation

import "errors"

// ErrGenerationUnavailable means the generation collaborator could not be
// reached or failed outright. Callers surface it as a retryable
// dependency failure, never as a data error.
var ErrGenerationUnavailable = errors.New("generation collaborator unavailable")

// ErrMalformedOutput means the collaborator responded, but its output
// failed JSON parsing or schema validation even after retry.
var ErrMalformedOutput = errors.New("generation collaborator returned malformed output")
