package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"gorm.io/gorm"
)

func preloadOrderItems(tx *gorm.DB) *gorm.DB {
	return tx.Order("id")
}

// CreateOrder persists the order and its items as one unit. order.Items must
// carry MovieID and PriceAtOrder; ids are filled in on success.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	items := order.Items
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Items = items
		return nil
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", preloadOrderItems).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetUserOrder treats a foreign order the same as a missing one.
func (r *GormRepo) GetUserOrder(ctx context.Context, userID, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items", preloadOrderItems).
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).Preload("Items", preloadOrderItems).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormRepo) ListOrders(ctx context.Context, f ListFilter) ([]models.Order, error) {
	var orders []models.Order
	q := f.apply(r.DB.WithContext(ctx).Model(&models.Order{}))
	err := q.Preload("Items", preloadOrderItems).Find(&orders).Error
	return orders, err
}

// CompareAndSetOrderStatus moves the order from -> to only if it is still in
// from. It returns ErrStale when the row exists but was in another status.
func (r *GormRepo) CompareAndSetOrderStatus(ctx context.Context, orderID uint, from, to models.OrderStatus) error {
	return casOrderStatus(r.DB.WithContext(ctx), orderID, from, to)
}

func casOrderStatus(tx *gorm.DB, orderID uint, from, to models.OrderStatus) error {
	if !from.CanTransition(to) {
		return ErrStale
	}
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrStale
	}
	return nil
}

// LatestOrderPayment returns nil, nil when the order has no payment yet.
func (r *GormRepo) LatestOrderPayment(ctx context.Context, orderID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
