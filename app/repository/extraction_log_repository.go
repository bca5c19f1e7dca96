package repository

import (
	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/models"
)

// extractionLogRepository implements ExtractionLogRepository on GORM
type extractionLogRepository struct {
	db *gorm.DB
}

// NewExtractionLogRepository creates a new extraction log repository instance
func NewExtractionLogRepository(db *gorm.DB) ExtractionLogRepository {
	return &extractionLogRepository{db: db}
}

// Create stores a new extraction log entry
func (r *extractionLogRepository) Create(log *models.ExtractionLog) error {
	return r.db.Create(log).Error
}

// ListByUserID retrieves a page of extraction logs for a user, newest first
func (r *extractionLogRepository) ListByUserID(userID uint, offset, limit int) ([]models.ExtractionLog, error) {
	var logs []models.ExtractionLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// CountByUserID returns the total number of extractions for a user
func (r *extractionLogRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ExtractionLog{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
