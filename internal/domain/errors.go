package domain

import (
	"errors"
	"fmt"
	"time"
)

// Machine-readable error codes printed in the {"error","code"} failure
// object. Kept compatible with the prior tooling's output.
const (
	CodeNotConnected     = "NOT_CONNECTED"
	CodeInvalidSession   = "INVALID_SESSION"
	CodeNoAppCredentials = "NO_APP_CREDENTIALS"
	CodeConnectionError  = "CONNECTION_ERROR"
	CodeInvalidPhone     = "INVALID_PHONE"
	CodeFloodWait        = "FLOOD_WAIT"
	CodeCodeSendError    = "CODE_SEND_ERROR"
	CodeInvalidCode      = "INVALID_CODE"
	CodeCodeExpired      = "CODE_EXPIRED"
	CodeSignInError      = "SIGN_IN_ERROR"
	CodeNoPending        = "NO_PENDING"
	CodeNotIn2FA         = "NOT_IN_2FA"
	CodeInvalid2FA       = "INVALID_2FA"
	CodeChatNotFound     = "CHAT_NOT_FOUND"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeAdminRequired    = "ADMIN_REQUIRED"
	CodeInvalidChatType  = "INVALID_CHAT_TYPE"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidQuery     = "INVALID_QUERY"
	CodeSendError        = "SEND_ERROR"
	CodeCreateError      = "CREATE_ERROR"
	CodeLeaveError       = "LEAVE_ERROR"
	CodeExportError      = "EXPORT_ERROR"
	CodeAPIError         = "API_ERROR"
	CodeSyncError        = "SYNC_ERROR"
)

// CodedError is an error carrying the machine-readable code emitted on
// the process boundary, plus the server-mandated wait for FLOOD_WAIT.
type CodedError struct {
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *CodedError) Error() string { return e.Message }

// E builds a CodedError with a plain message.
func E(code, msg string) *CodedError {
	return &CodedError{Code: code, Message: msg}
}

// Errf builds a CodedError with a formatted message.
func Errf(code, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// FloodWait builds the rate-limit error, surfacing the retry-after
// duration both in the message and as a field.
func FloodWait(d time.Duration) *CodedError {
	return &CodedError{
		Code:       CodeFloodWait,
		Message:    fmt.Sprintf("Rate limited. Retry in %ds", int(d.Seconds())),
		RetryAfter: d,
	}
}

// CodeOf extracts the error code, falling back to a generic code for
// errors that never got classified.
func CodeOf(err error, fallback string) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return fallback
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	var ce *CodedError
	return errors.As(err, &ce) && ce.Code == code
}
