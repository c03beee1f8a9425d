// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package roster

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code. Codes travel in HTTP error
// bodies and are reconstructed on the client side, so the full taxonomy
// lives here even though some codes are only produced by client packages.
type Code string

const (
	// CodeNotFound means a referenced id does not resolve to a person
	// of the expected role.
	CodeNotFound Code = "NOT_FOUND"

	// CodeAlreadyAssigned means the master already has a different
	// apprentice.
	CodeAlreadyAssigned Code = "ALREADY_ASSIGNED"

	// CodeInvalidRole means the role token is not a recognized role.
	CodeInvalidRole Code = "INVALID_ROLE"

	// CodeInvalidTransition means the requested role change is not
	// strictly forward in the progression.
	CodeInvalidTransition Code = "INVALID_TRANSITION"

	// CodeInconsistent means a stored assignment references an id that
	// no longer resolves. Internal; should never occur.
	CodeInconsistent Code = "INCONSISTENT"

	// CodeDuplicateRequest means the same logical mutation is already
	// pending in the client queue.
	CodeDuplicateRequest Code = "DUPLICATE_REQUEST"

	// CodeTransportFailure means delivery to the ledger could not
	// complete.
	CodeTransportFailure Code = "TRANSPORT_FAILURE"

	// CodeUnknown is the fallback for errors that carry no code.
	CodeUnknown Code = "UNKNOWN"
)

// Error is a roster error with a machine-readable code.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// NewError creates an Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code from err, unwrapping as needed.
// Returns CodeUnknown for nil or non-roster errors.
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
