package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Registry errors.
var (
	ErrDuplicateName = errors.New("machine already exists")
	ErrNotFound      = errors.New("machine not found")
	ErrInvalidName   = errors.New("machine name must not be empty")
	ErrConfigCorrupt = errors.New("registry file is corrupt")
	ErrPersistence   = errors.New("failed to save registry")
)

// NotFoundError lists the names a Remove call could not find.
type NotFoundError struct {
	Names []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, strings.Join(e.Names, ", "))
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError reports a failed save. The in-memory change that triggered
// the save has already been applied and may not survive a restart.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrPersistence, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
