package errs

import "errors"

var (
	ErrDiscoveryFailed   = errors.New("repository discovery failed")
	ErrFetchFailed       = errors.New("commit fetch failed")
	ErrPersistenceFailed = errors.New("persistence failed")
	ErrDeliveryFailed    = errors.New("delivery failed")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already linked")
	ErrNotValidData      = errors.New("not valid data")
	ErrInternal          = errors.New("internal error")
)
