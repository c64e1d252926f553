package service

import "fmt"

// LockConflictError signals that another backup/restore operation holds the
// global lock. Recoverable by waiting or forcing an unlock.
type LockConflictError struct {
	Operation string
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("another operation is in progress: %s", e.Operation)
}

// NotFoundError signals a missing artifact.
type NotFoundError struct {
	Filename string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("backup file not found: %s", e.Filename)
}

// ValidationError signals a bad filename, a path-traversal attempt or an
// unsupported store kind.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BackendError wraps a failure of the underlying store or its native tools.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
