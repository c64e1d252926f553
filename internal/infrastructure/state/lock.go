package state

import (
	"encoding/json"
	"errors"
	"time"
)

const lockKey = "database.lock"

// lockRecord is the persisted lock payload. The timestamp is float epoch
// seconds for compatibility with other tooling reading the lock file.
type lockRecord struct {
	Operation string  `json:"operation"`
	Timestamp float64 `json:"timestamp"`
}

// LockCoordinator is the single global mutual-exclusion lock shared across all
// service instances. A lock is honored for at most the TTL; holders that crash
// are healed lazily by the next reader.
type LockCoordinator struct {
	store Store
	ttl   time.Duration

	now func() time.Time
}

func NewLockCoordinator(store Store, ttl time.Duration) *LockCoordinator {
	return &LockCoordinator{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Acquire takes the lock for the named operation. It returns false when a
// valid lock is already held. Acquisition goes through an atomic exclusive
// write, so two concurrent callers can never both succeed: stale-lock cleanup
// removes only the exact record this caller read, and exactly one exclusive
// create wins afterwards.
func (l *LockCoordinator) Acquire(operation string) (bool, error) {
	if raw, rec, ok := l.read(); ok {
		if l.valid(rec) {
			return false, nil
		}
		// Expired or unreadable: clear it so the exclusive create can
		// proceed. The compare guards against removing a fresh lock another
		// instance wrote after our read.
		err := l.store.CompareAndDelete(lockKey, raw)
		if errors.Is(err, ErrKeyModified) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}

	data, err := json.Marshal(lockRecord{
		Operation: operation,
		Timestamp: float64(l.now().UnixNano()) / float64(time.Second),
	})
	if err != nil {
		return false, err
	}

	err = l.store.WriteExclusive(lockKey, data)
	if errors.Is(err, ErrKeyExists) {
		// Lost the race to another instance.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Check returns the operation name of the current valid lock. An expired lock
// is deleted as a side effect so crashed holders self-heal.
func (l *LockCoordinator) Check() (string, bool) {
	raw, rec, ok := l.read()
	if !ok {
		return "", false
	}
	if !l.valid(rec) {
		_ = l.store.CompareAndDelete(lockKey, raw)
		return "", false
	}
	return rec.Operation, true
}

// Release deletes the lock unconditionally. Idempotent.
func (l *LockCoordinator) Release() {
	_ = l.store.Delete(lockKey)
}

// read loads the current lock record along with its raw bytes, which the
// stale cleanup uses for its compare-and-delete. A missing key returns
// ok=false; a corrupt or unreadable record returns ok=true with a zero
// record, which valid() rejects, so the broken record gets cleared rather
// than wedging every future operation.
func (l *LockCoordinator) read() ([]byte, lockRecord, bool) {
	data, err := l.store.Read(lockKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, lockRecord{}, false
	}
	if err != nil {
		return nil, lockRecord{}, true
	}

	var rec lockRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return data, lockRecord{}, true
	}
	return data, rec, true
}

func (l *LockCoordinator) valid(rec lockRecord) bool {
	if rec.Timestamp == 0 {
		return false
	}
	acquired := time.Unix(0, int64(rec.Timestamp*float64(time.Second)))
	return l.now().Sub(acquired) < l.ttl
}
