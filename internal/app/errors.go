package app

import "errors"

var (
	ErrNotReady       = errors.New("service is not started")
	ErrAlreadyStarted = errors.New("service is already started")
	ErrDuplicate      = errors.New("duplicate transaction")
	ErrBatchTooLarge  = errors.New("batch exceeds the configured maximum")
)
