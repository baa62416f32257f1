package postgres

import (
	"time"

	"gorm.io/gorm"

	paymentmodel "github.com/betselot/gojo-bookings/internal/core/datamodel/payment"
	paymentpkg "github.com/betselot/gojo-bookings/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(p *paymentmodel.Payment) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByReference(reference string) (*paymentmodel.Payment, error) {
	var p paymentmodel.Payment
	err := r.db.Where("booking_reference = ?", reference).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByBookingID(bookingID int64) (*paymentmodel.Payment, error) {
	var p paymentmodel.Payment
	err := r.db.Where("booking_id = ?", bookingID).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ConditionalTransition is the compare-and-set at the heart of reconciliation:
// the status predicate rides in the UPDATE's WHERE clause, so the database
// serializes racing writers and exactly one sees RowsAffected == 1.
func (r *PaymentRepository) ConditionalTransition(reference string, expected, next paymentmodel.Status, fields paymentpkg.TransitionFields) (bool, error) {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     next,
		"updated_at": now,
	}

	if next.IsTerminal() {
		updates["settled_at"] = now
	}

	if fields.GatewayTxID != nil {
		updates["gateway_tx_id"] = *fields.GatewayTxID
	}

	if fields.PaymentMethod != nil {
		updates["payment_method"] = *fields.PaymentMethod
	}

	result := r.db.Model(&paymentmodel.Payment{}).
		Where("booking_reference = ? AND status = ?", reference, expected).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *PaymentRepository) UpdateCheckoutURL(reference, checkoutURL string) error {
	return r.db.Model(&paymentmodel.Payment{}).
		Where("booking_reference = ?", reference).
		Update("checkout_url", checkoutURL).Error
}
