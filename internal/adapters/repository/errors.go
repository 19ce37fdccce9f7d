package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("athlete not found")
	ErrAlreadyExists = errors.New("athlete already exists")
	ErrInvalidID     = errors.New("invalid athlete id")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
)
