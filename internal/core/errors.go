package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnknownType  = "unknown_type"
	ErrCodeInvalidUser  = "invalid_user"
	ErrCodeNotInRoom    = "not_in_room"
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeStorage      = "storage_error"
)

// ErrHubStopped is returned by queries issued after the hub has exited.
var ErrHubStopped = errors.New("hub stopped")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
