package model

import "errors"

// Sentinel error kinds for profile validation and lifecycle.
var (
	ErrInvalidCoefficients = errors.New("coefficients must sum to 1.0")
	ErrInvalidValue        = errors.New("invalid value")
	ErrBaselineAlreadySet  = errors.New("baseline already set")
	ErrBaselineNotSet      = errors.New("baseline not set")
)
