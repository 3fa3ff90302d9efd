package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/online_cinema/internal/repo"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
	// ErrInvalidState is an illegal order/payment transition; it is a conflict.
	ErrInvalidState     = fmt.Errorf("%w: invalid state", ErrConflict)
	ErrExternalService  = errors.New("external service") // 502
	ErrInvalidSignature = errors.New("invalid signature") // 400
)

// notFoundOr maps a missing row to ErrNotFound and leaves other errors as-is.
func notFoundOr(err error, what string) error {
	if repo.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
