package api

import (
	"errors"
	"net/http"

	"github.com/okian/wpr/internal/adapters/repository"
	service "github.com/okian/wpr/internal/app"
	"github.com/okian/wpr/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
)

// statusFor maps a service error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrBaselineAlreadySet):
		return http.StatusConflict, "baseline_already_set"
	case errors.Is(err, model.ErrBaselineNotSet):
		return http.StatusConflict, "baseline_not_set"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, model.ErrInvalidCoefficients):
		return http.StatusBadRequest, "invalid_coefficients"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidValue),
		errors.Is(err, service.ErrInvalidProfile),
		errors.Is(err, service.ErrInvalidMeasurement),
		errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
