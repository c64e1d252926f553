package handler

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/api/dto"
	"github.com/sokrates1989/dbsnap/internal/core/service"
)

const statusLink = "/backup/status"

type BackupHandler struct {
	backupService *service.BackupService
	log           *zap.SugaredLogger
}

func NewBackupHandler(backupService *service.BackupService, log *zap.SugaredLogger) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
		log:           log,
	}
}

// CreateBackup handles POST /backup/create
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	// Body is optional; compression defaults to on.
	var req dto.CreateBackupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
			return
		}
	}
	compress := req.Compress == nil || *req.Compress

	artifact, err := h.backupService.Create(c.Request.Context(), compress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBackupResponse(*artifact))
}

// ListBackups handles GET /backup/list
func (h *BackupHandler) ListBackups(c *gin.Context) {
	artifacts, err := h.backupService.List()
	if err != nil {
		respondError(c, err)
		return
	}

	response := dto.BackupListResponse{
		Items: make([]dto.BackupResponse, len(artifacts)),
		Count: len(artifacts),
	}
	for i, a := range artifacts {
		response.Items[i] = dto.ToBackupResponse(a)
	}

	c.JSON(http.StatusOK, response)
}

// DownloadBackup handles GET /backup/download/:filename
func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	filename := c.Param("filename")

	artifact, err := h.backupService.ResolveDownload(filename)
	if err != nil {
		respondError(c, err)
		return
	}

	c.FileAttachment(artifact.Path, artifact.Filename)
}

// RestoreBackup handles POST /backup/restore/:filename. The restore runs in
// the background; callers poll /backup/status for progress and warnings.
func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	filename := c.Param("filename")

	// Validate the filename and the lock up front so the caller gets an
	// immediate 404/400/409 instead of a poll result.
	if _, err := h.backupService.ResolveDownload(filename); err != nil {
		respondError(c, err)
		return
	}
	if op, held := h.backupService.LockStatus(); held {
		respondError(c, &service.LockConflictError{Operation: op})
		return
	}

	jobID := uuid.NewString()
	go func() {
		if _, err := h.backupService.Restore(context.Background(), filename); err != nil {
			h.log.Errorw("background restore failed", "job_id", jobID, "filename", filename, "error", err)
		}
	}()

	link := statusLink
	c.JSON(http.StatusAccepted, dto.AsyncResponse{
		Status: "accepted",
		JobID:  jobID,
		Link:   &link,
	})
}

// RestoreUpload handles POST /backup/restore-upload. The uploaded dump is
// spooled to a temporary file before the 202 so the request body can be
// released; the background restore removes it when done.
func (h *BackupHandler) RestoreUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad Request",
			Message: "missing upload field 'file'",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if op, held := h.backupService.LockStatus(); held {
		respondError(c, &service.LockConflictError{Operation: op})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "dbsnap-upload-*")
	if err != nil {
		respondError(c, err)
		return
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		respondError(c, err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		respondError(c, err)
		return
	}

	uploadName := fileHeader.Filename
	jobID := uuid.NewString()
	go func() {
		defer os.Remove(tmpPath)
		f, err := os.Open(tmpPath)
		if err != nil {
			h.log.Errorw("background restore failed", "job_id", jobID, "filename", uploadName, "error", err)
			return
		}
		defer f.Close()
		if _, err := h.backupService.RestoreUpload(context.Background(), f, uploadName); err != nil {
			h.log.Errorw("background restore failed", "job_id", jobID, "filename", uploadName, "error", err)
		}
	}()

	link := statusLink
	c.JSON(http.StatusAccepted, dto.AsyncResponse{
		Status: "accepted",
		JobID:  jobID,
		Link:   &link,
	})
}

// DeleteBackup handles DELETE /backup/delete/:filename
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	filename := c.Param("filename")

	if err := h.backupService.Delete(filename); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "backup deleted: " + filename,
	})
}

// Stats handles GET /backup/stats
func (h *BackupHandler) Stats(c *gin.Context) {
	stats, err := h.backupService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Status handles GET /backup/status
func (h *BackupHandler) Status(c *gin.Context) {
	progress, err := h.backupService.Status()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
