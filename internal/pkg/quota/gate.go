package quota

import (
	"errors"

	"github.com/pictotext/pictotext/app/models"
)

// Decision is the outcome of an admission check.
type Decision int

const (
	// Admit allows the extraction to proceed.
	Admit Decision = iota
	// DenyDailyLimit means the anonymous daily allowance is exhausted.
	DenyDailyLimit
	// DenyMonthlyLimit means the premium monthly allowance is exhausted.
	DenyMonthlyLimit
	// DenyUnknownUser means the session references an account that no longer
	// exists. The caller has to re-authenticate.
	DenyUnknownUser
	// DenyNoBackend means the quota backend could not be consulted, so the
	// request is refused rather than admitted unmetered.
	DenyNoBackend
)

// Snapshot reports the quota state that produced a decision.
type Snapshot struct {
	Count      int    `json:"count"`
	Limit      int    `json:"limit"`
	CanProcess bool   `json:"canProcess"`
	Tier       string `json:"tier"`
}

// Gate decides whether a request may consume an extraction. It only reads
// counters; the caller increments after a successful extraction.
type Gate struct {
	free    *FreeTracker
	premium *PremiumTracker
}

// NewGate creates a gate over the two trackers.
func NewGate(free *FreeTracker, premium *PremiumTracker) *Gate {
	return &Gate{free: free, premium: premium}
}

// CheckFree evaluates the anonymous allowance for the identity.
func (g *Gate) CheckFree(id Identity) (Decision, Snapshot) {
	count, err := g.free.Current(id)
	if err != nil {
		return DenyNoBackend, Snapshot{Limit: FreeDailyLimit, Tier: models.TIER_FREE}
	}
	snap := Snapshot{
		Count:      count,
		Limit:      FreeDailyLimit,
		CanProcess: count < FreeDailyLimit,
		Tier:       models.TIER_FREE,
	}
	if !snap.CanProcess {
		return DenyDailyLimit, snap
	}
	return Admit, snap
}

// CheckPremium evaluates the monthly allowance for the account. An unknown
// account is refused as such, never treated as a fresh counter.
func (g *Gate) CheckPremium(userID uint) (Decision, Snapshot) {
	count, err := g.premium.Monthly(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return DenyUnknownUser, Snapshot{Limit: PremiumMonthlyLimit, Tier: models.TIER_PREMIUM}
		}
		return DenyNoBackend, Snapshot{Limit: PremiumMonthlyLimit, Tier: models.TIER_PREMIUM}
	}
	snap := Snapshot{
		Count:      count,
		Limit:      PremiumMonthlyLimit,
		CanProcess: count < PremiumMonthlyLimit,
		Tier:       models.TIER_PREMIUM,
	}
	if !snap.CanProcess {
		return DenyMonthlyLimit, snap
	}
	return Admit, snap
}
