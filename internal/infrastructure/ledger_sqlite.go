package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// SQLiteLedger implements the credit ledger using SQLite: sessions carry the
// paid allowance, settlements record per-job debits with the job id as the
// idempotency key.
type SQLiteLedger struct {
	db *gorm.DB
}

// NewSQLiteLedger opens (or creates) the ledger database.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Session{}, &domain.Settlement{}); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger database: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// CreateSession activates a session for a completed payment.
func (l *SQLiteLedger) CreateSession(ctx context.Context, plan domain.Plan, reference string) (*domain.Session, error) {
	session := domain.NewSession(plan, reference)
	if err := l.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession returns the session for a token.
func (l *SQLiteLedger) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	var session domain.Session
	err := l.db.WithContext(ctx).First(&session, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// Settle debits the session's allowance by quantity songs for one job. The
// settlement row is inserted with an on-conflict no-op on job_id, so retrying
// the same job never debits twice.
func (l *SQLiteLedger) Settle(ctx context.Context, token, jobID string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("settlement quantity cannot be negative: %d", quantity)
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settlement := &domain.Settlement{
			JobID:        jobID,
			SessionToken: token,
			Quantity:     quantity,
			CreatedAt:    time.Now(),
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			DoNothing: true,
		}).Create(settlement)
		if res.Error != nil {
			return fmt.Errorf("failed to record settlement: %w", res.Error)
		}

		// Already settled for this job: apply nothing.
		if res.RowsAffected == 0 {
			return nil
		}

		debit := tx.Model(&domain.Session{}).
			Where("token = ?", token).
			Update("songs_used", gorm.Expr("songs_used + ?", quantity))
		if debit.Error != nil {
			return fmt.Errorf("failed to debit session: %w", debit.Error)
		}
		if debit.RowsAffected == 0 {
			return domain.ErrSessionNotFound
		}
		return nil
	})
}

// Settled returns the settlement recorded for a job, or nil if none exists.
func (l *SQLiteLedger) Settled(ctx context.Context, jobID string) (*domain.Settlement, error) {
	var settlement domain.Settlement
	err := l.db.WithContext(ctx).First(&settlement, "job_id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load settlement: %w", err)
	}
	return &settlement, nil
}

// Close closes the database connection.
func (l *SQLiteLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
