package handler

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/sokrates1989/dbsnap/internal/api/dto"
)

func TestLockLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	// Initially unlocked.
	w := env.do(t, http.MethodGet, "/database/lock-status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var status dto.LockStatusResponse
	decode(t, w, &status)
	if status.Locked {
		t.Error("reported locked before any lock")
	}

	// Take the lock.
	w = env.do(t, http.MethodPost, "/database/lock", bytes.NewBufferString(`{"operation": "migration"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("lock status = %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/database/lock-status", nil)
	decode(t, w, &status)
	if !status.Locked || status.Operation != "migration" {
		t.Errorf("lock status = %+v, want locked by migration", status)
	}

	// A second lock attempt conflicts.
	w = env.do(t, http.MethodPost, "/database/lock", bytes.NewBufferString(`{"operation": "other"}`))
	if w.Code != http.StatusConflict {
		t.Errorf("second lock status = %d, want 409", w.Code)
	}

	// Unlock frees it.
	w = env.do(t, http.MethodPost, "/database/unlock", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unlock status = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/database/lock-status", nil)
	decode(t, w, &status)
	if status.Locked {
		t.Error("still locked after unlock")
	}
}

func TestLockRequiresOperation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/database/lock", bytes.NewBufferString(`{}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}
