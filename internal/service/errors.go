package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrAccountDisabled    = fmt.Errorf("%w: account disabled", ErrForbidden)
	ErrEmailTaken         = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrAlreadyOrdered     = fmt.Errorf("%w: order already exists for this cart", ErrConflict)
	ErrCartNotOwned       = fmt.Errorf("%w: cart does not belong to this user", ErrForbidden)
	ErrInvalidResetToken  = fmt.Errorf("%w: invalid or expired token", ErrValidation)
	ErrInvalidTransition  = fmt.Errorf("%w: status transition not allowed", ErrValidation)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s not found", ErrNotFound, what)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
}

// Message strips the kind prefix so the text can be shown to clients.
func Message(err error) string {
	msg := err.Error()
	for _, kind := range []error{ErrValidation, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict} {
		prefix := kind.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
