package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig        = fmt.Errorf("invalid configuration")
	ErrMissingCredentials   = fmt.Errorf("missing credentials")
	ErrInvalidCredentials   = fmt.Errorf("invalid credentials")
	ErrMissingProviderToken = fmt.Errorf("provider token missing from credential")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Playback engine errors
	ErrEngineUnavailable = fmt.Errorf("playback engine unavailable")
	ErrDeviceNotFound    = fmt.Errorf("playback device not found")
	ErrNotRunning        = fmt.Errorf("session controller not running")
	ErrAlreadyRunning    = fmt.Errorf("session controller already running")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
