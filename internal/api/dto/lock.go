package dto

// LockRequest names the operation taking the lock.
type LockRequest struct {
	Operation string `json:"operation" binding:"required"`
}

// LockStatusResponse reports the current lock holder, if any.
type LockStatusResponse struct {
	Locked    bool   `json:"locked"`
	Operation string `json:"operation,omitempty"`
}
