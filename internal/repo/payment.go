package repo

import (
	"context"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"gorm.io/gorm"
)

func preloadPaymentItems(tx *gorm.DB) *gorm.DB {
	return tx.Order("id")
}

func (r *GormRepo) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Preload("Items", preloadPaymentItems).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetUserPayment(ctx context.Context, userID, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Preload("Items", preloadPaymentItems).
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetPaymentByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("external_payment_id = ?", externalID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ListUserPayments(ctx context.Context, userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.DB.WithContext(ctx).Preload("Items", preloadPaymentItems).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	return payments, err
}

func (r *GormRepo) ListPayments(ctx context.Context, f ListFilter) ([]models.Payment, error) {
	var payments []models.Payment
	q := f.apply(r.DB.WithContext(ctx).Model(&models.Payment{}))
	err := q.Preload("Items", preloadPaymentItems).Find(&payments).Error
	return payments, err
}

// ConfirmPayment records a provider-confirmed payment for order. In one
// transaction it inserts the Payment and its items, flips the order from
// pending to paid and drops the paid movies from the user's cart.
//
// The payment insert goes first so that a concurrent delivery of the same
// event trips the unique external_payment_id index and gets ErrDuplicate.
func (r *GormRepo) ConfirmPayment(ctx context.Context, order *models.Order, externalID string) (*models.Payment, error) {
	payment := models.Payment{
		UserID:            order.UserID,
		OrderID:           order.ID,
		Status:            models.PaymentStatusSuccessful,
		Amount:            order.TotalAmount,
		ExternalPaymentID: externalID,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(&payment).Error; err != nil {
			return duplicateOr(err)
		}

		items := make([]models.PaymentItem, 0, len(order.Items))
		for _, oi := range order.Items {
			items = append(items, models.PaymentItem{
				PaymentID:      payment.ID,
				OrderItemID:    oi.ID,
				PriceAtPayment: oi.PriceAtOrder,
			})
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		payment.Items = items

		if err := casOrderStatus(tx, order.ID, models.OrderStatusPending, models.OrderStatusPaid); err != nil {
			return err
		}

		paidMovies := tx.Table("order_items").
			Select("order_items.movie_id").
			Joins("JOIN payment_items ON payment_items.order_item_id = order_items.id").
			Joins("JOIN payments ON payments.id = payment_items.payment_id").
			Where("payments.user_id = ? AND payments.status = ?", order.UserID, models.PaymentStatusSuccessful)
		userCarts := tx.Table("carts").Select("id").Where("user_id = ?", order.UserID)

		return tx.Where("cart_id IN (?) AND movie_id IN (?)", userCarts, paidMovies).
			Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormRepo) CompareAndSetPaymentStatus(ctx context.Context, paymentID uint, from, to models.PaymentStatus) error {
	return casPaymentStatus(r.DB.WithContext(ctx), paymentID, from, to)
}

func casPaymentStatus(tx *gorm.DB, paymentID uint, from, to models.PaymentStatus) error {
	res := tx.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// MarkRefunded moves the payment successful -> refunded and its order
// paid -> refunded together.
func (r *GormRepo) MarkRefunded(ctx context.Context, paymentID, orderID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := casPaymentStatus(tx, paymentID, models.PaymentStatusSuccessful, models.PaymentStatusRefunded); err != nil {
			return err
		}
		return casOrderStatus(tx, orderID, models.OrderStatusPaid, models.OrderStatusRefunded)
	})
}
