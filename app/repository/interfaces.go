package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/models"
)

// Implementations must return gorm.ErrRecordNotFound for missing rows so
// callers can branch with errors.Is regardless of the selected backend.

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByOAuth(provider, oauthID string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// PremiumListingRepository manages the paid-email allow-list.
type PremiumListingRepository interface {
	// Upsert creates the listing or overwrites an existing entry for the
	// same email (payment re-confirmation must not duplicate).
	Upsert(listing *models.PremiumListing) error
	GetByEmail(email string) (*models.PremiumListing, error)
	SetStatus(email, status string) error
	List(offset, limit int) ([]models.PremiumListing, error)
	Count() (int64, error)
}

// FreeUsageRepository stores anonymous daily counters keyed by IP+cookie.
type FreeUsageRepository interface {
	Get(ipAddress, cookieID string) (*models.FreeUsage, error)
	Save(usage *models.FreeUsage) error
	// PurgeIdle deletes rows whose LastReset is before the cutoff and
	// returns the number of rows removed.
	PurgeIdle(cutoff time.Time) (int64, error)
}

// ExtractionLogRepository records successful extractions.
type ExtractionLogRepository interface {
	Create(entry *models.ExtractionLog) error
	ListByUserID(userID uint, offset, limit int) ([]models.ExtractionLog, error)
	CountByUserID(userID uint) (int64, error)
}

// PaymentRepository records gateway payment events.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByOrderRef(orderRef string) (*models.Payment, error)
	Update(payment *models.Payment) error
	ListByEmail(email string) ([]models.Payment, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User           UserRepository
	PremiumListing PremiumListingRepository
	FreeUsage      FreeUsageRepository
	ExtractionLog  ExtractionLogRepository
	Payment        PaymentRepository
}

// NewRepositories creates GORM-backed repositories.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		PremiumListing: NewPremiumListingRepository(db),
		FreeUsage:      NewFreeUsageRepository(db),
		ExtractionLog:  NewExtractionLogRepository(db),
		Payment:        NewPaymentRepository(db),
	}
}

// NewMemoryRepositories creates in-memory repositories for development and
// tests. Both backends satisfy the same contract; the choice is made once at
// startup, never per call.
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		User:           NewMemoryUserRepository(),
		PremiumListing: NewMemoryPremiumListingRepository(),
		FreeUsage:      NewMemoryFreeUsageRepository(),
		ExtractionLog:  NewMemoryExtractionLogRepository(),
		Payment:        NewMemoryPaymentRepository(),
	}
}
