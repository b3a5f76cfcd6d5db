package devices

import (
	"errors"
	"fmt"
)

// Error codes for enumeration failures.
const (
	ErrCodeActivationFailed       = "ACTIVATION_FAILED"
	ErrCodeNoDevicesFound         = "NO_DEVICES_FOUND"
	ErrCodeDeviceQueryFailed      = "DEVICE_QUERY_FAILED"
	ErrCodeDescriptionUnavailable = "DESCRIPTION_UNAVAILABLE"
)

// Error represents an enumeration failure with a code callers can branch on.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsNoDevices reports whether err carries the NO_DEVICES_FOUND code.
// Callers that only need the device list commonly flatten this failure
// into an empty list; it stays a distinct code so they can also tell it
// apart from a broken enumeration stack.
func IsNoDevices(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNoDevicesFound
}
