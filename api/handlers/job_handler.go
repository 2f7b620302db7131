package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hitbot-agency/suno-downloader/internal/app"
	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// JobHandler handles download job HTTP requests
type JobHandler struct {
	controller *app.JobController
	ledger     domain.Ledger
	logger     *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(controller *app.JobController, ledger domain.Ledger, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		controller: controller,
		ledger:     ledger,
		logger:     logger,
	}
}

// StartJobRequest represents a request to start a download job
type StartJobRequest struct {
	SessionToken string                   `json:"session_token" binding:"required"`
	MaxSongs     int                      `json:"max_songs,omitempty"`
	Credentials  domain.SourceCredentials `json:"credentials"`
}

// StartJob handles POST /api/v1/jobs
func (h *JobHandler) StartJob(c *gin.Context) {
	var req StartJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, ok := h.validSession(c, req.SessionToken)
	if !ok {
		return
	}

	// Resolve an unspecified cap from the session's plan allowance; an
	// explicit request is still bounded by it.
	jobCap := session.JobCap()
	if jobCap < 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "song allowance exhausted"})
		return
	}
	if req.MaxSongs > 0 && req.MaxSongs < jobCap {
		jobCap = req.MaxSongs
	}

	creds := req.Credentials
	if creds.Method == "" {
		creds.Method = "chrome_debug"
	}

	job, err := h.controller.Submit(req.SessionToken, jobCap, creds)
	if err != nil {
		h.logger.Error("Failed to submit job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"job_id":    job.ID,
		"status":    job.Status(),
		"max_songs": jobCap,
	})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	id := c.Param("id")

	progress, err := h.controller.GetStatus(id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("Failed to get job status", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":   id,
		"status":   progress.Status,
		"progress": progress,
	})
}

// CancelJob handles POST /api/v1/jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	id := c.Param("id")

	if err := h.controller.Cancel(id); err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		case errors.Is(err, domain.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to cancel job", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job cancelled", "job_id": id})
}

// DownloadArchive handles GET /api/v1/jobs/:id/archive
func (h *JobHandler) DownloadArchive(c *gin.Context) {
	id := c.Param("id")

	path, err := h.controller.ArtifactPath(id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		case errors.Is(err, domain.ErrArtifactNotReady):
			c.JSON(http.StatusConflict, gin.H{"error": "job not completed yet"})
		default:
			h.logger.Error("Failed to locate archive", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.FileAttachment(path, fmt.Sprintf("suno_songs_%s.zip", id))
}

// validSession loads and validates the session, writing the error response
// itself when the token is unknown or expired.
func (h *JobHandler) validSession(c *gin.Context, token string) (*domain.Session, bool) {
	session, err := h.ledger.GetSession(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return nil, false
		}
		h.logger.Error("Failed to load session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}

	if err := session.Validate(time.Now()); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return nil, false
	}

	return session, true
}
