// Package browseyerr defines the closed error-code taxonomy that every
// component surfaces to the command layer, per spec section 7.
package browseyerr

import (
	"fmt"
)

// Code is one member of the closed error taxonomy. New members must not be
// added outside this file.
type Code string

// The full closed set, normalized to lower snake case.
const (
	InvalidPath          Code = "invalid_path"
	InvalidInput         Code = "invalid_input"
	NotFound             Code = "not_found"
	DestinationExists    Code = "destination_exists"
	SymlinkUnsupported   Code = "symlink_unsupported"
	PathNotAbsolute      Code = "path_not_absolute"
	PermissionDenied     Code = "permission_denied"
	ReadOnlyFilesystem   Code = "read_only_filesystem"
	AuthRequired         Code = "auth_required"
	IOError              Code = "io_error"
	OpenFailed           Code = "open_failed"
	MetadataReadFailed   Code = "metadata_read_failed"
	Cancelled            Code = "cancelled"
	Timeout              Code = "timeout"
	TaskFailed           Code = "task_failed"
	WatchNotAllowed      Code = "watch_not_allowed"
	BinaryMissing        Code = "binary_missing"
	Unsupported          Code = "unsupported"
	NetworkError         Code = "network_error"
	TLSCertificateError  Code = "tls_certificate_error"
	RateLimited          Code = "rate_limited"
	InvalidConfig        Code = "invalid_config"
	AsyncJobStateUnknown Code = "async_job_state_unknown"
	DBOpenFailed         Code = "db_open_failed"
	DBReadFailed         Code = "db_read_failed"
	DBWriteFailed        Code = "db_write_failed"
	SerializeFailed      Code = "serialize_failed"
	ParseFailed          Code = "parse_failed"
	UnknownError         Code = "unknown_error"
)

// Error is the structured error returned across the command surface as
// {code, message}.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// New constructs an Error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs an Error that carries an underlying cause, preserving it
// for errors.Unwrap/errors.Is/errors.As chains.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Code, so that
// errors.Is(err, browseyerr.New(NotFound, "")) reads naturally at call
// sites.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// CodeOf extracts the Code from err if it is (or wraps) a *Error, otherwise
// returns UnknownError. Used at the command surface boundary to normalize
// any error into {code, message}.
func CodeOf(err error) Code {
	var be *Error
	for {
		if e, ok := err.(*Error); ok {
			be = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
		if err == nil {
			break
		}
	}
	if be == nil {
		return UnknownError
	}
	return be.Code
}

// Surface renders err as the {code, message} pair returned to callers of
// the command surface.
func Surface(err error) (Code, string) {
	if err == nil {
		return "", ""
	}
	if be, ok := err.(*Error); ok {
		return be.Code, be.Error()
	}
	return UnknownError, err.Error()
}
