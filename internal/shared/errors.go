// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package shared

import (
	"errors"
	"fmt"
)

// ErrorCode is the numeric status code returned to callers. The values are
// part of the public API and must never change.
type ErrorCode int

const (
	ErrCodeOK             ErrorCode = 0
	ErrCodeLostConnection ErrorCode = 10
	ErrCodeBadParams      ErrorCode = 21
	ErrCodeBadAddr        ErrorCode = 22
	ErrCodeBadNic         ErrorCode = 23
	ErrCodeUsedNic        ErrorCode = 24
	ErrCodeBadBonding     ErrorCode = 25
	ErrCodeBadVlan        ErrorCode = 26
	ErrCodeBadBridge      ErrorCode = 27
	ErrCodeUsedBridge     ErrorCode = 28

	// ErrCodeGeneral is used for failures that are not a ConfigNetworkError.
	ErrCodeGeneral ErrorCode = 100
)

// statusDone is the message that accompanies ErrCodeOK.
const statusDone = "Done"

// ConfigNetworkError is the only error kind raised by network validation. It
// carries a stable code, which callers branch on, and a human-readable
// message.
type ConfigNetworkError struct {
	Code    ErrorCode
	Message string

	// Err is an optional underlying error, exposed via Unwrap.
	Err error
}

// NewConfigNetworkError builds a ConfigNetworkError with a formatted message.
func NewConfigNetworkError(code ErrorCode, format string, args ...any) *ConfigNetworkError {
	return &ConfigNetworkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapConfigNetworkError builds a ConfigNetworkError which unwraps to err.
func WrapConfigNetworkError(code ErrorCode, err error, format string, args ...any) *ConfigNetworkError {
	return &ConfigNetworkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (e *ConfigNetworkError) Error() string {
	return fmt.Sprintf("config network error %d: %s", e.Code, e.Message)
}

func (e *ConfigNetworkError) Unwrap() error { return e.Err }

// ErrorCodeOf returns the code carried by err. A nil error maps to
// ErrCodeOK and any error that is not a ConfigNetworkError to
// ErrCodeGeneral.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}

	var cErr *ConfigNetworkError
	if errors.As(err, &cErr) {
		return cErr.Code
	}
	return ErrCodeGeneral
}

// Status is the status object of the response envelope.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is the standard response envelope returned to callers.
type Response struct {
	Status Status `json:"status"`
}

// StatusFromError converts the result of an operation into a status object.
func StatusFromError(err error) Status {
	if err == nil {
		return Status{Code: int(ErrCodeOK), Message: statusDone}
	}

	var cErr *ConfigNetworkError
	if errors.As(err, &cErr) {
		return Status{Code: int(cErr.Code), Message: cErr.Message}
	}
	return Status{Code: int(ErrCodeGeneral), Message: err.Error()}
}
