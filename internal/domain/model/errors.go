package model

import "errors"

// Sentinel kinds for per-call input failures. These are recoverable by the
// caller; fatal configuration problems live in the packages that load them.
var ErrInvalidTransaction = errors.New("invalid transaction")
