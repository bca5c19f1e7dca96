package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/models"
)

// premiumListingRepository implements PremiumListingRepository on GORM
type premiumListingRepository struct {
	db *gorm.DB
}

// NewPremiumListingRepository creates a new allow-list repository instance
func NewPremiumListingRepository(db *gorm.DB) PremiumListingRepository {
	return &premiumListingRepository{db: db}
}

// Upsert creates or overwrites the listing for its email. Re-confirming a
// payment for the same email updates the existing row in place.
func (r *premiumListingRepository) Upsert(listing *models.PremiumListing) error {
	var existing models.PremiumListing
	err := r.db.Where("email = ?", listing.Email).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(listing).Error
	}
	if err != nil {
		return err
	}

	existing.PaymentRef = listing.PaymentRef
	existing.Status = listing.Status
	if err := r.db.Save(&existing).Error; err != nil {
		return err
	}
	*listing = existing
	return nil
}

// GetByEmail retrieves the listing for an email
func (r *premiumListingRepository) GetByEmail(email string) (*models.PremiumListing, error) {
	var listing models.PremiumListing
	err := r.db.Where("email = ?", email).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// SetStatus updates the subscription status for an email
func (r *premiumListingRepository) SetStatus(email, status string) error {
	res := r.db.Model(&models.PremiumListing{}).Where("email = ?", email).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns listings ordered by creation time
func (r *premiumListingRepository) List(offset, limit int) ([]models.PremiumListing, error) {
	var listings []models.PremiumListing
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&listings).Error
	return listings, err
}

// Count returns the total number of listings
func (r *premiumListingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.PremiumListing{}).Count(&count).Error
	return count, err
}
