package device

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes failures returned by the core.
type ErrorCode string

const (
	// ErrCodeValidation indicates bad, missing or duplicate input.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNotFound indicates the selection names an unknown device.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeAlreadyInUse indicates a checkout of a device that is checked out.
	ErrCodeAlreadyInUse ErrorCode = "ALREADY_IN_USE"

	// ErrCodeAccountConflict indicates another device on the same account is in use.
	ErrCodeAccountConflict ErrorCode = "ACCOUNT_CONFLICT"

	// ErrCodeEditBlocked indicates an edit of an in-use device.
	ErrCodeEditBlocked ErrorCode = "EDIT_BLOCKED"

	// ErrCodeRemoveBlocked indicates a removal batch containing in-use devices.
	ErrCodeRemoveBlocked ErrorCode = "REMOVE_BLOCKED"

	// ErrCodeStorage indicates the record file could not be read or written.
	ErrCodeStorage ErrorCode = "STORAGE"
)

// Error is the typed failure returned by every core operation.
type Error struct {
	Code    ErrorCode
	Message string

	// DeviceID identifies the affected device, when there is exactly one.
	DeviceID string

	// AccountID is set for account conflicts.
	AccountID string

	// DeviceIDs lists the offending devices of a batch (remove, not found).
	DeviceIDs []string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsValidation(err error) bool      { return CodeOf(err) == ErrCodeValidation }
func IsNotFound(err error) bool        { return CodeOf(err) == ErrCodeNotFound }
func IsAlreadyInUse(err error) bool    { return CodeOf(err) == ErrCodeAlreadyInUse }
func IsAccountConflict(err error) bool { return CodeOf(err) == ErrCodeAccountConflict }
func IsEditBlocked(err error) bool     { return CodeOf(err) == ErrCodeEditBlocked }
func IsRemoveBlocked(err error) bool   { return CodeOf(err) == ErrCodeRemoveBlocked }
func IsStorage(err error) bool         { return CodeOf(err) == ErrCodeStorage }

// NewValidationError creates a VALIDATION error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewNotFoundError creates a NOT_FOUND error for one or more ids.
func NewNotFoundError(ids ...string) *Error {
	e := &Error{
		Code:      ErrCodeNotFound,
		DeviceIDs: ids,
	}
	if len(ids) == 1 {
		e.DeviceID = ids[0]
		e.Message = fmt.Sprintf("device %q not found", ids[0])
	} else {
		e.Message = fmt.Sprintf("devices not found: %s", strings.Join(ids, ", "))
	}
	return e
}

// NewAlreadyInUseError creates an ALREADY_IN_USE error.
func NewAlreadyInUseError(id string) *Error {
	return &Error{
		Code:     ErrCodeAlreadyInUse,
		Message:  fmt.Sprintf("device %q is already in use", id),
		DeviceID: id,
	}
}

// NewAccountConflictError creates an ACCOUNT_CONFLICT error.
func NewAccountConflictError(id, accountID string) *Error {
	return &Error{
		Code:      ErrCodeAccountConflict,
		Message:   fmt.Sprintf("account %q already in use, cannot use %q", accountID, id),
		DeviceID:  id,
		AccountID: accountID,
	}
}

// NewEditBlockedError creates an EDIT_BLOCKED error.
func NewEditBlockedError(id string) *Error {
	return &Error{
		Code:     ErrCodeEditBlocked,
		Message:  fmt.Sprintf("cannot edit device %q while it is in use", id),
		DeviceID: id,
	}
}

// NewRemoveBlockedError creates a REMOVE_BLOCKED error listing in-use ids.
func NewRemoveBlockedError(ids []string) *Error {
	return &Error{
		Code:      ErrCodeRemoveBlocked,
		Message:   fmt.Sprintf("cannot remove devices in use: %s", strings.Join(ids, ", ")),
		DeviceIDs: ids,
	}
}

// NewStorageError wraps an I/O or decoding failure.
func NewStorageError(message string, err error) *Error {
	return &Error{
		Code:    ErrCodeStorage,
		Message: message,
		Err:     err,
	}
}
