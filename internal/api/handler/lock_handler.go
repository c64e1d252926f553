package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sokrates1989/dbsnap/internal/api/dto"
	"github.com/sokrates1989/dbsnap/internal/core/service"
)

type LockHandler struct {
	backupService *service.BackupService
}

func NewLockHandler(backupService *service.BackupService) *LockHandler {
	return &LockHandler{
		backupService: backupService,
	}
}

// Lock handles POST /database/lock
func (h *LockHandler) Lock(c *gin.Context) {
	var req dto.LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	if err := h.backupService.Lock(req.Operation); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "database locked for operation: " + req.Operation,
	})
}

// Unlock handles POST /database/unlock
func (h *LockHandler) Unlock(c *gin.Context) {
	h.backupService.Unlock()

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "database unlocked",
	})
}

// LockStatus handles GET /database/lock-status
func (h *LockHandler) LockStatus(c *gin.Context) {
	op, held := h.backupService.LockStatus()

	c.JSON(http.StatusOK, dto.LockStatusResponse{
		Locked:    held,
		Operation: op,
	})
}
