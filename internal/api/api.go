// Package api contains the gin HTTP handlers for the v1 API and the
// plagiarism proxy endpoint.
package api

import (
	"errors"
	"net/http"

	"github.com/chefscript/backend/internal/service"
)

// errorStatus maps service errors onto HTTP status codes. User-payable
// failures are 402, upstream provider failures are gateway errors.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInsufficientTokens):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInsufficientCredits):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
