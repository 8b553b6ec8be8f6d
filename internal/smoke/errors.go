package smoke

import "errors"

// Error constants.
var (
	ErrUnknownMode = errors.New("unknown smoke mode")
	ErrMissingURL  = errors.New("target url is required")
	ErrChecks      = errors.New("smoke checks failed")
)
