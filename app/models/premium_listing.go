package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	LISTING_STATUS_ACTIVE    = "active"
	LISTING_STATUS_CANCELLED = "cancelled"
	LISTING_STATUS_EXPIRED   = "expired"
)

// PremiumListing is an allow-list entry: an email that has paid and is
// therefore eligible to hold an account. Entries are written on payment
// confirmation and may exist long before (or without) a matching User.
type PremiumListing struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email"`
	PaymentRef string    `gorm:"type:varchar(100)" json:"payment_ref"`
	Status     string    `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active cancelled expired"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *PremiumListing) Validate() error {
	v := validator.New()

	return v.Struct(l)
}

// IsActive reports whether the listing still entitles account access.
func (l *PremiumListing) IsActive() bool {
	return l.Status == LISTING_STATUS_ACTIVE
}
