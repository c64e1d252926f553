// Package state persists the cross-process coordination records: the global
// operation lock and the restore progress. Records go through a small shared
// key-value interface so the file backing can be swapped for a database row or
// a distributed lock service without touching the coordinator logic.
package state

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

var (
	// ErrKeyNotFound is returned by Read when the key has never been written.
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyExists is returned by WriteExclusive when the key is already present.
	ErrKeyExists = errors.New("key already exists")
	// ErrKeyModified is returned by CompareAndDelete when the value changed
	// since the caller read it.
	ErrKeyModified = errors.New("key changed since read")
)

// Store is shared persistent key-value storage visible to every service
// instance. WriteExclusive and CompareAndDelete must be atomic with respect
// to each other and to Delete: of N concurrent exclusive writers for an
// absent key exactly one succeeds, and CompareAndDelete never removes a value
// other than the one the caller read.
type Store interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	WriteExclusive(key string, data []byte) error
	CompareAndDelete(key string, expect []byte) error
	Delete(key string) error
}

// FileStore keeps each key as a file in a shared directory. Exclusive writes
// rely on O_EXCL; the read-compare-remove of CompareAndDelete is serialized
// against other mutations with a mutex for goroutines in this process and an
// advisory flock for other service instances sharing the directory.
type FileStore struct {
	dir string

	mu  sync.Mutex
	flk *flock.Flock
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return &FileStore{
		dir: dir,
		flk: flock.New(filepath.Join(dir, ".guard")),
	}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

// guard enters the mutation critical section shared by WriteExclusive,
// CompareAndDelete and Delete.
func (s *FileStore) guard() (func(), error) {
	s.mu.Lock()
	if err := s.flk.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to lock state directory: %w", err)
	}
	return func() {
		_ = s.flk.Unlock()
		s.mu.Unlock()
	}, nil
}

func (s *FileStore) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) Write(key string, data []byte) error {
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) WriteExclusive(key string, data []byte) error {
	release, err := s.guard()
	if err != nil {
		return err
	}
	defer release()

	f, err := os.OpenFile(s.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return ErrKeyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", key, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// CompareAndDelete removes key only while its value still equals expect. A
// key that is already gone counts as deleted; a value written by someone else
// since the caller's read returns ErrKeyModified and stays in place.
func (s *FileStore) CompareAndDelete(key string, expect []byte) error {
	release, err := s.guard()
	if err != nil {
		return err
	}
	defer release()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !bytes.Equal(data, expect) {
		return ErrKeyModified
	}

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	release, err := s.guard()
	if err != nil {
		return err
	}
	defer release()

	err = os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
