package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authorization errors
	ErrInvalidState       = fmt.Errorf("invalid or expired state")
	ErrExchangeFailed     = fmt.Errorf("token exchange failed")
	ErrRefreshFailed      = fmt.Errorf("token refresh failed")
	ErrMalformedResponse  = fmt.Errorf("malformed token response")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrSessionIDCollision = fmt.Errorf("session id collision")

	// API and service errors
	ErrListFetchFailed    = fmt.Errorf("list fetch failed")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
