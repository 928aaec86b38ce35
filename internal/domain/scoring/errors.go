package scoring

import "errors"

// Bundle problems are fatal at load time; vector problems are per-call.
var (
	ErrLoadBundle    = errors.New("failed to load model bundle")
	ErrInvalidBundle = errors.New("invalid model bundle")
	ErrVectorWidth   = errors.New("feature vector width mismatch")
)
