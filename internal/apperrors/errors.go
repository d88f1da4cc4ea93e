// Package apperrors defines the error taxonomy shared across the service.
// Callers classify failures with errors.Is against these sentinels; the
// concrete context travels in the wrapping message.
package apperrors

import "errors"

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrProvider indicates a transport, timeout, or parse failure while talking
// to an external rate source.
var ErrProvider = errors.New("provider error")

// ErrConflict indicates an attempt to create something that already exists
// or a configuration that contradicts existing state.
var ErrConflict = errors.New("conflict")

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")
