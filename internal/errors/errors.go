package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	// User input errors: always user-facing, non-fatal
	ErrCodeUserInputUnrecognized = "USER_INPUT_UNRECOGNIZED"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeNoTasksMatched        = "NO_TASKS_MATCHED"

	// Data integrity errors
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
	ErrCodeIntegrityViolation = "INTEGRITY_VIOLATION"

	// Collaborator errors
	ErrCodeEnrichmentUnavailable = "ENRICHMENT_UNAVAILABLE"
	ErrCodeCollaboratorFailure   = "COLLABORATOR_FAILURE"
)

// BotError is an error with a classification code. The code decides whether
// the failure is reported to the chat author or only logged.
type BotError struct {
	Code    string
	Message string
	Err     error
}

func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BotError) Unwrap() error {
	return e.Err
}

// New creates a BotError with the given code and message.
func New(code, message string) *BotError {
	return &BotError{Code: code, Message: message}
}

// Wrap creates a BotError wrapping an underlying cause.
func Wrap(code, message string, err error) *BotError {
	return &BotError{Code: code, Message: message, Err: err}
}

// CodeOf returns the classification code of err, or empty when err carries
// no BotError in its chain.
func CodeOf(err error) string {
	var be *BotError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsUserFacing reports whether err should be relayed to the chat author as a
// normal, non-fatal reply instead of a generic failure message.
func IsUserFacing(err error) bool {
	switch CodeOf(err) {
	case ErrCodeUserInputUnrecognized, ErrCodeUserNotFound, ErrCodeNoTasksMatched,
		ErrCodeTaskNotFound, ErrCodeIntegrityViolation:
		return true
	}
	return false
}
