package models

import "net/http"

// AppError is a structured application error. Code identifies the failure kind,
// Status is the HTTP status used by the API and Exit the process exit code used by
// the CLI.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Exit    int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is reports whether target is an AppError of the same kind, so that
// errors.Is(err, ErrSinkNotFound) matches any sink-not-found error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Error codes.
const (
	CodeToolUnavailable = "TOOL_UNAVAILABLE"
	CodeToolExecution   = "TOOL_EXECUTION"
	CodeParse           = "PARSE_ERROR"
	CodeDeviceNotFound  = "DEVICE_NOT_FOUND"
	CodeSinkNotFound    = "SINK_NOT_FOUND"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInternal        = "INTERNAL"
)

// Process exit codes.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitSinkNotFound    = 2
	ExitDeviceNotFound  = 3
	ExitToolUnavailable = 4
	ExitToolExecution   = 5
)

// Sentinels for errors.Is comparisons.
var (
	ErrToolUnavailable = &AppError{Code: CodeToolUnavailable}
	ErrToolExecution   = &AppError{Code: CodeToolExecution}
	ErrParse           = &AppError{Code: CodeParse}
	ErrDeviceNotFound  = &AppError{Code: CodeDeviceNotFound}
	ErrSinkNotFound    = &AppError{Code: CodeSinkNotFound}
)

// ToolUnavailable reports that an external command is not installed or not executable.
func ToolUnavailable(tool string, err error) *AppError {
	return &AppError{Code: CodeToolUnavailable, Message: tool + " is not available",
		Status: http.StatusServiceUnavailable, Exit: ExitToolUnavailable, Err: err}
}

// ToolExecution reports an abnormal exit of a discovery command.
func ToolExecution(msg string, err error) *AppError {
	return &AppError{Code: CodeToolExecution, Message: msg,
		Status: http.StatusBadGateway, Exit: ExitToolExecution, Err: err}
}

// ParseError reports tool output that could not be turned into typed records.
// It shares the exit code of ToolExecution.
func ParseError(msg string, err error) *AppError {
	return &AppError{Code: CodeParse, Message: msg,
		Status: http.StatusBadGateway, Exit: ExitToolExecution, Err: err}
}

// DeviceNotFound reports a label that resolved to no Bluetooth audio device.
func DeviceNotFound(label string) *AppError {
	return &AppError{Code: CodeDeviceNotFound, Message: "no bluetooth audio device matches " + quote(label),
		Status: http.StatusNotFound, Exit: ExitDeviceNotFound}
}

// SinkNotFound reports a label that resolved to no sink after all attempts.
func SinkNotFound(label string) *AppError {
	return &AppError{Code: CodeSinkNotFound, Message: "no sink matches " + quote(label),
		Status: http.StatusNotFound, Exit: ExitSinkNotFound}
}

// BadRequest reports invalid caller input.
func BadRequest(msg string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: msg, Status: http.StatusBadRequest, Exit: ExitFailure}
}

// Internal wraps an unexpected error.
func Internal(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal error",
		Status: http.StatusInternalServerError, Exit: ExitFailure, Err: err}
}

func quote(s string) string { return "\"" + s + "\"" }
