package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrInvalidResponse    = fmt.Errorf("invalid response body")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Interaction errors
	ErrActionNotAllowed  = fmt.Errorf("action not allowed in current state")
	ErrUnknownGenre      = fmt.Errorf("genre not in catalog")
	ErrNothingStaged     = fmt.Errorf("no song staged for preview")
	ErrPlayerUnavailable = fmt.Errorf("playback device unavailable")
	ErrSongNotFound      = fmt.Errorf("song not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
