package service

import (
	"errors"

	"github.com/okian/wpr/internal/adapters/repository"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrBackpressure       = errors.New("measurement queue full")
	ErrInvalidMeasurement = errors.New("invalid measurement")
	ErrInvalidProfile     = errors.New("invalid profile")
	ErrNotFound           = repository.ErrNotFound
	ErrInvalidLimit       = repository.ErrInvalidLimit
)
