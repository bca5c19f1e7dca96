package quota

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/models"
	"github.com/pictotext/pictotext/app/repository"
)

// PremiumMonthlyLimit is the number of extractions a premium account gets per
// calendar month.
const PremiumMonthlyLimit = 1500

// ErrUserNotFound is returned when a premium counter is requested for an
// account that does not exist.
var ErrUserNotFound = errors.New("user not found")

// PremiumTracker counts extractions per registered account, resetting on
// calendar month boundaries.
type PremiumTracker struct {
	repo repository.UserRepository
	now  func() time.Time
}

// NewPremiumTracker creates a tracker backed by the given repository.
func NewPremiumTracker(repo repository.UserRepository) *PremiumTracker {
	return &PremiumTracker{repo: repo, now: time.Now}
}

func (t *PremiumTracker) load(userID uint) (*models.User, error) {
	user, err := t.repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if MonthlyStale(user.LastUsageReset, t.now()) {
		user.MonthlyUsage = 0
		user.LastUsageReset = t.now()
	}
	return user, nil
}

// Monthly returns the effective count for the account without mutating
// anything.
func (t *PremiumTracker) Monthly(userID uint) (int, error) {
	user, err := t.load(userID)
	if err != nil {
		return 0, err
	}
	return user.MonthlyUsage, nil
}

// Increment records one extraction for the account and returns the new
// count. A pending month rollover is persisted together with the increment.
func (t *PremiumTracker) Increment(userID uint) (int, error) {
	user, err := t.load(userID)
	if err != nil {
		return 0, err
	}
	user.MonthlyUsage++
	if err := t.repo.Update(user); err != nil {
		return 0, err
	}
	return user.MonthlyUsage, nil
}
