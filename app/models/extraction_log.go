package models

import "time"

const (
	TIER_FREE    = "free"
	TIER_PREMIUM = "premium"
)

// ExtractionLog records one successful OCR extraction. Premium rows carry a
// UserID; free rows carry the anonymous IP+cookie identity instead.
type ExtractionLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	IPAddress  string    `gorm:"type:varchar(45);index:idx_extraction_logs_identity" json:"-"`
	CookieID   string    `gorm:"type:varchar(64);index:idx_extraction_logs_identity" json:"-"`
	Tier       string    `gorm:"type:varchar(20);not null" json:"tier"`
	Engine     string    `gorm:"type:varchar(30)" json:"engine"`
	WordCount  int       `gorm:"not null;default:0" json:"word_count"`
	Confidence int       `gorm:"not null;default:0" json:"confidence"`
	ArchiveKey *string   `gorm:"type:varchar(255)" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// DailyExtractionStat holds aggregated per-day extraction counters, flushed
// in batch from Redis by the metrics counter package.
type DailyExtractionStat struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Day         string    `gorm:"type:varchar(10);uniqueIndex:idx_daily_stats_key" json:"day"` // YYYY-MM-DD
	Tier        string    `gorm:"type:varchar(20);uniqueIndex:idx_daily_stats_key" json:"tier"`
	Extractions int64     `gorm:"not null;default:0" json:"extractions"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
