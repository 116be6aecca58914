package manager

import "fmt"

// Error carries a stable machine-readable code alongside a human message,
// the shape the intent processor surfaces verbatim as error_code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func errf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

const (
	CodeMissingFields    = "MISSING_FIELDS"
	CodeRunwayClosed     = "RUNWAY_CLOSED"
	CodeMissingOverride  = "MISSING_OVERRIDE_REASON"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidParent    = "INVALID_PARENT"
	CodeInvalidDeps      = "INVALID_DEPENDENCIES"
	CodeCircularDeps     = "CIRCULAR_DEPENDENCY"
	CodeVerifyNoop       = "VERIFY_NOOP"
	CodeArrayTooLong     = "ARRAY_TOO_LONG"
)
