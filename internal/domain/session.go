package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a principal with a paid access window and song allowance.
type Session struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	PlanType  string    `json:"plan_type" gorm:"not null"`
	PlanName  string    `json:"plan_name"`
	MaxSongs  int       `json:"max_songs"` // 0 = unlimited
	SongsUsed int       `json:"songs_used" gorm:"default:0"`
	Reference string    `json:"reference"` // payment-provider reference
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
}

// NewSession creates a session for a completed payment on the given plan.
func NewSession(plan Plan, reference string) *Session {
	now := time.Now()
	return &Session{
		Token:     uuid.New().String(),
		PlanType:  plan.Type,
		PlanName:  plan.Name,
		MaxSongs:  plan.MaxSongs,
		Reference: reference,
		CreatedAt: now,
		ExpiresAt: now.Add(plan.Duration),
	}
}

// Expired reports whether the session's access window has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Validate reports whether the session grants access at the given time,
// returning ErrSessionExpired when the paid window has elapsed.
func (s *Session) Validate(now time.Time) error {
	if s.Expired(now) {
		return ErrSessionExpired
	}
	return nil
}

// Unlimited reports whether the session has no overall song allowance.
func (s *Session) Unlimited() bool {
	return s.MaxSongs <= 0
}

// Remaining returns the songs left on the allowance, or -1 when unlimited.
func (s *Session) Remaining() int {
	if s.Unlimited() {
		return -1
	}
	remaining := s.MaxSongs - s.SongsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// JobCap resolves the concrete per-job song cap from the session's remaining
// allowance. Unlimited plans get the practical per-job limit. Callers resolve
// the cap before submitting; the controller never sees an unspecified cap.
func (s *Session) JobCap() int {
	if s.Unlimited() {
		return PracticalJobLimit
	}
	remaining := s.Remaining()
	if remaining > PracticalJobLimit {
		return PracticalJobLimit
	}
	return remaining
}

// Settlement records a ledger adjustment for one job. JobID is the idempotency
// key: a job's settlement is applied at most once even under retry.
type Settlement struct {
	JobID        string    `json:"job_id" gorm:"primaryKey"`
	SessionToken string    `json:"session_token" gorm:"not null;index"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}
