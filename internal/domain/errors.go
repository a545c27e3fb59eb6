package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = fmt.Errorf("%w: already exists", ErrValidation)
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrStorageCorruption  = errors.New("storage corrupted")
	ErrUnavailable        = errors.New("instrument unavailable for the requested dates")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("sign in required")
)

// kinds is the wire name of each sentinel, most specific first.
var kinds = []struct {
	name string
	err  error
}{
	{"not_found", ErrNotFound},
	{"conflict", ErrConflict},
	{"validation", ErrValidation},
	{"invalid_credentials", ErrInvalidCredentials},
	{"account_disabled", ErrAccountDisabled},
	{"unavailable", ErrUnavailable},
	{"forbidden", ErrForbidden},
	{"unauthenticated", ErrUnauthenticated},
	{"storage_corruption", ErrStorageCorruption},
}

// Kind names the sentinel err wraps, or "internal".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

// FromKind rebuilds an error from its wire form so errors.Is keeps working
// across an API hop. Unknown kinds return nil.
func FromKind(kind, msg string) error {
	for _, k := range kinds {
		if k.name == kind {
			msg = strings.TrimPrefix(msg, k.err.Error()+": ")
			if msg == "" || msg == k.err.Error() {
				return k.err
			}
			return fmt.Errorf("%w: %s", k.err, msg)
		}
	}
	return nil
}

// StorageCorruptionError is returned when a persisted blob cannot be decoded.
type StorageCorruptionError struct {
	Key string
	Err error
}

func (e *StorageCorruptionError) Error() string {
	return fmt.Sprintf("storage corrupted at %q: %v", e.Key, e.Err)
}

func (e *StorageCorruptionError) Unwrap() error { return e.Err }

func (e *StorageCorruptionError) Is(target error) bool { return target == ErrStorageCorruption }

func NotFound(kind string, id int) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
