package cli

import "errors"

var (
	ErrLoadFile      = errors.New("failed to load analysis file")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownFormat = errors.New("unknown output format")
)
