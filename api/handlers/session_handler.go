package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// SessionHandler handles session and pricing HTTP requests
type SessionHandler struct {
	ledger domain.Ledger
	logger *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(ledger domain.Ledger, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		ledger: ledger,
		logger: logger,
	}
}

// GetPlans handles GET /api/v1/plans
func (h *SessionHandler) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": domain.Plans()})
}

// CreateSessionRequest carries a completed-payment event. Payment checkout
// and webhook verification happen upstream; this endpoint only activates the
// paid session.
type CreateSessionRequest struct {
	Plan      string `json:"plan" binding:"required"`
	Reference string `json:"reference" binding:"required"`
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, ok := domain.PlanByType(req.Plan)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan type"})
		return
	}

	session, err := h.ledger.CreateSession(c.Request.Context(), plan, req.Reference)
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_token": session.Token,
		"plan_name":     session.PlanName,
		"max_songs":     session.MaxSongs,
		"expires_at":    session.ExpiresAt,
	})
}

// ValidateSessionRequest represents a session validation request
type ValidateSessionRequest struct {
	SessionToken string `json:"session_token" binding:"required"`
}

// ValidateSession handles POST /api/v1/sessions/validate
func (h *SessionHandler) ValidateSession(c *gin.Context) {
	var req ValidateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.ledger.GetSession(c.Request.Context(), req.SessionToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "invalid session"})
			return
		}
		h.logger.Error("Failed to load session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	if err := session.Validate(now); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"session": gin.H{
			"plan_name":      session.PlanName,
			"expires_at":     session.ExpiresAt,
			"max_songs":      session.MaxSongs,
			"songs_used":     session.SongsUsed,
			"remaining":      session.Remaining(),
			"time_remaining": session.ExpiresAt.Sub(now).Seconds(),
		},
	})
}
