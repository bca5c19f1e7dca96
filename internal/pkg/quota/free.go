package quota

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/models"
	"github.com/pictotext/pictotext/app/repository"
)

// FreeDailyLimit is the number of extractions an anonymous visitor gets per
// rolling 24 hour window.
const FreeDailyLimit = 3

// FreeTracker counts anonymous extractions per IP+cookie identity.
type FreeTracker struct {
	repo repository.FreeUsageRepository
	now  func() time.Time
}

// NewFreeTracker creates a tracker backed by the given repository.
func NewFreeTracker(repo repository.FreeUsageRepository) *FreeTracker {
	return &FreeTracker{repo: repo, now: time.Now}
}

// load returns the current row for the identity, applying the rolling reset.
// A missing row materializes as a zeroed counter. The reset is applied in
// memory only; reads never write.
func (t *FreeTracker) load(id Identity) (*models.FreeUsage, error) {
	usage, err := t.repo.Get(id.IPAddress, id.CookieID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.FreeUsage{
				IPAddress: id.IPAddress,
				CookieID:  id.CookieID,
				LastReset: t.now(),
			}, nil
		}
		return nil, err
	}
	if DailyStale(usage.LastReset, t.now()) {
		usage.UsageCount = 0
		usage.LastReset = t.now()
	}
	return usage, nil
}

// Current returns the effective count for the identity without mutating
// anything.
func (t *FreeTracker) Current(id Identity) (int, error) {
	usage, err := t.load(id)
	if err != nil {
		return 0, err
	}
	return usage.UsageCount, nil
}

// Increment records one extraction for the identity and returns the new
// count. The stale-window reset is persisted together with the increment.
func (t *FreeTracker) Increment(id Identity) (int, error) {
	usage, err := t.load(id)
	if err != nil {
		return 0, err
	}
	usage.UsageCount++
	if err := t.repo.Save(usage); err != nil {
		return 0, err
	}
	return usage.UsageCount, nil
}

// PurgeIdle removes counters untouched for the given retention period and
// returns how many rows were dropped.
func (t *FreeTracker) PurgeIdle(retention time.Duration) (int64, error) {
	return t.repo.PurgeIdle(t.now().Add(-retention))
}
