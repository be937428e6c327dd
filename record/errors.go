package record

import "errors"

var (
	ErrMissingKey   = errors.New("missing record key")
	ErrInvalidValue = errors.New("invalid record value")
)
