package repository

import (
	"gorm.io/gorm"

	"github.com/pictotext/pictotext/app/models"
)

// paymentRepository implements PaymentRepository on GORM
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create stores a new payment record
func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByOrderRef retrieves a payment by its provider order reference
func (r *paymentRepository) GetByOrderRef(orderRef string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("order_ref = ?", orderRef).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Update saves changes to an existing payment record
func (r *paymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// ListByEmail retrieves all payments for an email, newest first
func (r *paymentRepository) ListByEmail(email string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("email = ?", email).Order("created_at DESC").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
