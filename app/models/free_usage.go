package models

import "time"

// FreeUsage tracks anonymous extractions per IP+cookie pair. Rows are
// created lazily on first use and reset whenever the rolling day boundary
// has been crossed (see quota.DailyStale).
type FreeUsage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	IPAddress  string    `gorm:"type:varchar(45);uniqueIndex:idx_free_usage_identity" json:"ip_address"`
	CookieID   string    `gorm:"type:varchar(64);uniqueIndex:idx_free_usage_identity" json:"cookie_id"`
	UsageCount int       `gorm:"not null;default:0" json:"usage_count"`
	LastReset  time.Time `gorm:"not null;index" json:"last_reset"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
