package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/models"
)

// In-memory repositories back the application when no database is configured.
// They honor the same contract as the GORM implementations, including
// gorm.ErrRecordNotFound for misses.

type memoryUserRepository struct {
	mu     sync.RWMutex
	users  map[uint]*models.User
	nextID uint
}

// NewMemoryUserRepository creates an in-memory user repository
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[uint]*models.User), nextID: 1}
}

func (r *memoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}

	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepository) GetByID(id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memoryUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepository) GetByOAuth(provider, oauthID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.OAuthProvider == provider && u.OAuthID == oauthID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

type memoryPremiumListingRepository struct {
	mu       sync.RWMutex
	listings map[string]*models.PremiumListing
	nextID   uint
}

// NewMemoryPremiumListingRepository creates an in-memory allow-list repository
func NewMemoryPremiumListingRepository() PremiumListingRepository {
	return &memoryPremiumListingRepository{listings: make(map[string]*models.PremiumListing), nextID: 1}
}

func (r *memoryPremiumListingRepository) Upsert(listing *models.PremiumListing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(listing.Email)
	now := time.Now()
	if existing, ok := r.listings[key]; ok {
		existing.PaymentRef = listing.PaymentRef
		existing.Status = listing.Status
		existing.UpdatedAt = now
		*listing = *existing
		return nil
	}

	listing.ID = r.nextID
	r.nextID++
	listing.CreatedAt = now
	listing.UpdatedAt = now

	clone := *listing
	r.listings[key] = &clone
	return nil
}

func (r *memoryPremiumListingRepository) GetByEmail(email string) (*models.PremiumListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *memoryPremiumListingRepository) SetStatus(email, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[strings.ToLower(email)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.Status = status
	l.UpdatedAt = time.Now()
	return nil
}

func (r *memoryPremiumListingRepository) List(offset, limit int) ([]models.PremiumListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]models.PremiumListing, 0, len(r.listings))
	for _, l := range r.listings {
		all = append(all, *l)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []models.PremiumListing{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryPremiumListingRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.listings)), nil
}

type memoryFreeUsageRepository struct {
	mu     sync.RWMutex
	usage  map[string]*models.FreeUsage
	nextID uint
}

// NewMemoryFreeUsageRepository creates an in-memory free usage repository
func NewMemoryFreeUsageRepository() FreeUsageRepository {
	return &memoryFreeUsageRepository{usage: make(map[string]*models.FreeUsage), nextID: 1}
}

func usageKey(ipAddress, cookieID string) string {
	return ipAddress + "|" + cookieID
}

func (r *memoryFreeUsageRepository) Get(ipAddress, cookieID string) (*models.FreeUsage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.usage[usageKey(ipAddress, cookieID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memoryFreeUsageRepository) Save(usage *models.FreeUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if usage.ID == 0 {
		usage.ID = r.nextID
		r.nextID++
		usage.CreatedAt = now
	}
	usage.UpdatedAt = now

	clone := *usage
	r.usage[usageKey(usage.IPAddress, usage.CookieID)] = &clone
	return nil
}

func (r *memoryFreeUsageRepository) PurgeIdle(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for key, u := range r.usage {
		if u.LastReset.Before(cutoff) {
			delete(r.usage, key)
			removed++
		}
	}
	return removed, nil
}

type memoryExtractionLogRepository struct {
	mu     sync.RWMutex
	logs   []models.ExtractionLog
	nextID uint
}

// NewMemoryExtractionLogRepository creates an in-memory extraction log repository
func NewMemoryExtractionLogRepository() ExtractionLogRepository {
	return &memoryExtractionLogRepository{nextID: 1}
}

func (r *memoryExtractionLogRepository) Create(entry *models.ExtractionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = r.nextID
	r.nextID++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *memoryExtractionLogRepository) ListByUserID(userID uint, offset, limit int) ([]models.ExtractionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.ExtractionLog, 0)
	for _, entry := range r.logs {
		if entry.UserID != nil && *entry.UserID == userID {
			matched = append(matched, entry)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []models.ExtractionLog{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *memoryExtractionLogRepository) CountByUserID(userID uint) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, entry := range r.logs {
		if entry.UserID != nil && *entry.UserID == userID {
			count++
		}
	}
	return count, nil
}

type memoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*models.Payment
	nextID   uint
}

// NewMemoryPaymentRepository creates an in-memory payment repository
func NewMemoryPaymentRepository() PaymentRepository {
	return &memoryPaymentRepository{payments: make(map[string]*models.Payment), nextID: 1}
}

func (r *memoryPaymentRepository) Create(payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[payment.OrderRef]; ok {
		return gorm.ErrDuplicatedKey
	}

	payment.ID = r.nextID
	r.nextID++
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}

	clone := *payment
	r.payments[payment.OrderRef] = &clone
	return nil
}

func (r *memoryPaymentRepository) GetByOrderRef(orderRef string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[orderRef]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memoryPaymentRepository) Update(payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[payment.OrderRef]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *payment
	r.payments[payment.OrderRef] = &clone
	return nil
}

func (r *memoryPaymentRepository) ListByEmail(email string) ([]models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Payment, 0)
	for _, p := range r.payments {
		if strings.EqualFold(p.Email, email) {
			matched = append(matched, *p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}
