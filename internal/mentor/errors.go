package mentor

import "errors"

// Error taxonomy for the categorization and decomposition pipelines.
// EmptyInput is caught locally before any oracle call. Unavailable and
// Malformed abort the current invocation entirely. Zero confidence is NOT
// an error: it is a valid terminal result carrying ClarificationMessage.
var (
	ErrEmptyInput        = errors.New("input is empty or whitespace; clarify your input and try again")
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrMalformedResponse = errors.New("malformed oracle response")
)
