package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory. A nil db selects the
// in-memory backend; the selection happens exactly once.
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		if f.db != nil {
			f.repos = NewRepositories(f.db)
		} else {
			f.repos = NewMemoryRepositories()
		}
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetPremiumListingRepository returns the allow-list repository instance
func (f *Factory) GetPremiumListingRepository() PremiumListingRepository {
	return f.GetRepositories().PremiumListing
}

// GetFreeUsageRepository returns the free usage repository instance
func (f *Factory) GetFreeUsageRepository() FreeUsageRepository {
	return f.GetRepositories().FreeUsage
}

// GetExtractionLogRepository returns the extraction log repository instance
func (f *Factory) GetExtractionLogRepository() ExtractionLogRepository {
	return f.GetRepositories().ExtractionLog
}

// GetPaymentRepository returns the payment repository instance
func (f *Factory) GetPaymentRepository() PaymentRepository {
	return f.GetRepositories().Payment
}

var (
	globalFactory     *Factory
	globalFactoryOnce sync.Once
)

// InitGlobalFactory wires the process-wide factory. Called once from main
// after the storage backend has been decided.
func InitGlobalFactory(db *gorm.DB) {
	globalFactoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the process-wide factory. It falls back to the
// in-memory backend when main never initialized a database (tests, dev).
func GetGlobalFactory() *Factory {
	InitGlobalFactory(nil)
	return globalFactory
}
