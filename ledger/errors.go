// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/squareledger/models"
)

var (
	ErrWardNotFound = errors.New("ward not found")
	ErrWardExists   = errors.New("ward already exists")

	// errConflict marks a compare-and-set miss inside a transaction.
	errConflict = errors.New("write conflict")
)

// ValidationError reports malformed input. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// TransientError is returned once the retry budget or the caller's deadline
// is spent. The request is safe to resubmit with the same client_request_id.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ErrorKind maps an error returned by this package onto models.Kind*.
func ErrorKind(err error) string {
	var verr *ValidationError
	var terr *TransientError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return models.KindValidation
	case errors.Is(err, ErrWardNotFound):
		return models.KindNotFound
	case errors.Is(err, ErrWardExists):
		return models.KindConflict
	case errors.As(err, &terr), errors.Is(err, context.DeadlineExceeded):
		return models.KindTransient
	default:
		return models.KindInternal
	}
}
