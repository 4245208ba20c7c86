package models

import (
	"errors"
	"fmt"
)

// ErrKind tags a model error so callers can distinguish unusable results
// from usable-with-caveats ones.
type ErrKind string

const (
	ErrConfiguration          ErrKind = "configuration"           // bad hyperparameters or shape mismatch, fatal for fit
	ErrModel                  ErrKind = "model"                   // numerical failure at inference time
	ErrInsufficientData       ErrKind = "insufficient_data"       // sample too small for the requested fit
	ErrSerializationIntegrity ErrKind = "serialization_integrity" // artifact missing or failed self-check
)

// ModelError carries a kind plus detail. Estimation-time errors abort the
// whole fit; per-horizon errors are isolated by the caller.
type ModelError struct {
	Kind   ErrKind
	Detail string
	Err    error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError creates a tagged model error.
func NewModelError(kind ErrKind, format string, a ...interface{}) *ModelError {
	return &ModelError{Kind: kind, Detail: fmt.Sprintf(format, a...)}
}

// WrapModelError tags an underlying error.
func WrapModelError(kind ErrKind, err error, format string, a ...interface{}) *ModelError {
	return &ModelError{Kind: kind, Detail: fmt.Sprintf(format, a...), Err: err}
}

// IsErrKind reports whether err is a ModelError of the given kind.
func IsErrKind(err error, kind ErrKind) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Kind == kind
	}
	return false
}
