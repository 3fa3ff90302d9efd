package repo

import (
	"context"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetOrCreateCart returns the user's cart, creating it on first use. Two
// concurrent first requests converge on one row through the unique user_id.
func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	db := r.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&models.Cart{UserID: userID}).Error; err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("added_at, id")
	}).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) AddCartItem(ctx context.Context, cartID, movieID uint) (*models.CartItem, error) {
	item := models.CartItem{CartID: cartID, MovieID: movieID}
	if err := r.DB.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, duplicateOr(err)
	}
	return &item, nil
}

func (r *GormRepo) RemoveCartItem(ctx context.Context, cartID, movieID uint) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("cart_id = ? AND movie_id = ?", cartID, movieID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CartMovies resolves the user's cart lines to live movie rows. Lines whose
// movie no longer exists are dropped; lines is the raw number of cart lines.
func (r *GormRepo) CartMovies(ctx context.Context, userID uint) (movies []models.Movie, lines int64, err error) {
	db := r.DB.WithContext(ctx)
	if err = db.Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Count(&lines).Error; err != nil {
		return nil, 0, err
	}
	if lines == 0 {
		return nil, 0, nil
	}
	err = db.Model(&models.Movie{}).
		Joins("JOIN cart_items ON cart_items.movie_id = movies.id").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Order("cart_items.added_at, cart_items.id").
		Find(&movies).Error
	return movies, lines, err
}

// PaidMovieIDs returns the subset of movieIDs that appear in a PAID order of the user.
func (r *GormRepo) PaidMovieIDs(ctx context.Context, userID uint, movieIDs []uint) ([]uint, error) {
	if len(movieIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Distinct("order_items.movie_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.movie_id IN ?", userID, models.OrderStatusPaid, movieIDs).
		Order("order_items.movie_id").
		Pluck("order_items.movie_id", &ids).Error
	return ids, err
}
