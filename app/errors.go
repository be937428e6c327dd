package app

import "errors"

// ErrEmptyMessage is returned by Chat for blank input.
var ErrEmptyMessage = errors.New("message is empty")
