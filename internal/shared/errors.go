package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors; fatal to a run before any job starts
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrInvalidMode        = fmt.Errorf("invalid source mode")
	ErrMissingSource      = fmt.Errorf("missing track source")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Input errors
	ErrParseSkip       = fmt.Errorf("malformed entry skipped")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Per-job errors, recorded at the job boundary
	ErrSourceUnavailable = fmt.Errorf("source unavailable")
	ErrFetchFailed       = fmt.Errorf("fetch failed")
	ErrTrimFailed        = fmt.Errorf("trim failed")
	ErrPlacement         = fmt.Errorf("placement failed")
	ErrNoCandidate       = fmt.Errorf("no acceptable replacement")
	ErrClaimLost         = fmt.Errorf("dedup claim no longer held")
	ErrCancelled         = fmt.Errorf("cancelled")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrItemNotFound       = fmt.Errorf("item not found")
	ErrToolMissing        = fmt.Errorf("external tool not found")
)
