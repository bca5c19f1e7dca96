package models

import "time"

const (
	PAYMENT_STATUS_PENDING   = "pending"
	PAYMENT_STATUS_COMPLETED = "completed"
	PAYMENT_STATUS_FAILED    = "failed"
)

// Payment records a PayPal transaction as reported by the gateway. Amount is
// stored as a string to avoid float precision loss.
type Payment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Email       string     `gorm:"type:varchar(200);index" json:"email"`
	OrderRef    string     `gorm:"uniqueIndex;type:varchar(100)" json:"order_ref"`
	Amount      string     `gorm:"type:varchar(20)" json:"amount"`
	Currency    string     `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Status      string     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt *time.Time `gorm:"type:timestamp;default:null" json:"completed_at"`
}
