package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRefunded OrderStatus = "refunded"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:    {OrderStatusRefunded},
}

// CanTransition reports whether an order may move from s to next.
// Transitions are one-directional: pending -> paid -> refunded, pending -> canceled.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCanceled, OrderStatusRefunded:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusCanceled   PaymentStatus = "canceled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusSuccessful, PaymentStatusCanceled, PaymentStatusRefunded:
		return true
	}
	return false
}

type User struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role  string `gorm:"size:32;not null;default:user" json:"role"`
}

type Movie struct {
	ID    uint            `gorm:"primaryKey;autoIncrement"   json:"id"`
	Name  string          `gorm:"size:255;not null;index"   json:"name"`
	Year  int             `json:"year"`
	Price decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`

	LikeCount     int64   `gorm:"not null;default:0;check:like_count >= 0"     json:"like_count"`
	FavoriteCount int64   `gorm:"not null;default:0;check:favorite_count >= 0" json:"favorite_count"`
	CommentCount  int64   `gorm:"not null;default:0;check:comment_count >= 0"  json:"comment_count"`
	RatingCount   int64   `gorm:"not null;default:0;check:rating_count >= 0"   json:"rating_count"`
	RatingAverage float64 `gorm:"not null;default:0"                           json:"rating_average"`
}

type Cart struct {
	ID     uint       `gorm:"primaryKey;autoIncrement"                    json:"id"`
	UserID uint       `gorm:"uniqueIndex;not null"                        json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

type CartItem struct {
	ID      uint      `gorm:"primaryKey;autoIncrement"              json:"id"`
	CartID  uint      `gorm:"uniqueIndex:uq_cart_movie;not null"    json:"cart_id"`
	MovieID uint      `gorm:"uniqueIndex:uq_cart_movie;not null"    json:"movie_id"`
	AddedAt time.Time `gorm:"autoCreateTime"                        json:"added_at"`
}

type Order struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"                       json:"id"`
	UserID      uint            `gorm:"index;not null"                                 json:"user_id"`
	Status      OrderStatus     `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(10,2);not null"                    json:"total_amount"`
	CreatedAt   time.Time       `gorm:"index"                                          json:"created_at"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID      uint            `gorm:"index;not null"              json:"order_id"`
	MovieID      uint            `gorm:"index;not null"              json:"movie_id"`
	PriceAtOrder decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_at_order"`
}

type Payment struct {
	ID                uint            `gorm:"primaryKey;autoIncrement"                         json:"id"`
	UserID            uint            `gorm:"index;not null"                                   json:"user_id"`
	OrderID           uint            `gorm:"index;not null"                                   json:"order_id"`
	Status            PaymentStatus   `gorm:"type:varchar(16);not null;default:successful;index" json:"status"`
	Amount            decimal.Decimal `gorm:"type:numeric(10,2);not null"                      json:"amount"`
	ExternalPaymentID string          `gorm:"size:255;not null;uniqueIndex"                    json:"external_payment_id"`
	CreatedAt         time.Time       `gorm:"index"                                            json:"created_at"`
	Items             []PaymentItem   `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"items"`
}

type PaymentItem struct {
	ID             uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	PaymentID      uint            `gorm:"index;not null"              json:"payment_id"`
	OrderItemID    uint            `gorm:"index;not null"              json:"order_item_id"`
	PriceAtPayment decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_at_payment"`
}

// MovieReaction stores like/dislike; a missing row is the "none" state.
type MovieReaction struct {
	UserID  uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	MovieID uint `gorm:"primaryKey;autoIncrement:false;index" json:"movie_id"`
	IsLike  bool `gorm:"not null" json:"is_like"`
}

type FavoriteMovie struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	MovieID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"movie_id"`
	CreatedAt time.Time `json:"created_at"`
}

type MovieComment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MovieID   uint      `gorm:"index;not null"           json:"movie_id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	ParentID  *uint     `gorm:"index"                    json:"parent_id,omitempty"`
	Content   string    `gorm:"type:text;not null"       json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MovieRating struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	MovieID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"movie_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 10" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MovieStats is the denormalized counter projection of a movie row.
type MovieStats struct {
	MovieID       uint    `gorm:"column:id"   json:"movie_id"`
	Name          string  `json:"name"`
	LikeCount     int64   `json:"like_count"`
	FavoriteCount int64   `json:"favorite_count"`
	CommentCount  int64   `json:"comment_count"`
	RatingCount   int64   `json:"rating_count"`
	RatingAverage float64 `json:"rating_average"`
}

func All() []any {
	return []any{
		&User{}, &Movie{},
		&Cart{}, &CartItem{},
		&Order{}, &OrderItem{},
		&Payment{}, &PaymentItem{},
		&MovieReaction{}, &FavoriteMovie{}, &MovieComment{}, &MovieRating{},
	}
}
