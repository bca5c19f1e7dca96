package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/models"
)

// freeUsageRepository implements FreeUsageRepository on GORM
type freeUsageRepository struct {
	db *gorm.DB
}

// NewFreeUsageRepository creates a new free usage repository instance
func NewFreeUsageRepository(db *gorm.DB) FreeUsageRepository {
	return &freeUsageRepository{db: db}
}

// Get retrieves the counter row for an IP+cookie identity
func (r *freeUsageRepository) Get(ipAddress, cookieID string) (*models.FreeUsage, error) {
	var usage models.FreeUsage
	err := r.db.Where("ip_address = ? AND cookie_id = ?", ipAddress, cookieID).First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// Save creates or updates a counter row
func (r *freeUsageRepository) Save(usage *models.FreeUsage) error {
	return r.db.Save(usage).Error
}

// PurgeIdle deletes rows not reset since the cutoff
func (r *freeUsageRepository) PurgeIdle(cutoff time.Time) (int64, error) {
	res := r.db.Where("last_reset < ?", cutoff).Delete(&models.FreeUsage{})
	return res.RowsAffected, res.Error
}
