package transport

import (
	"time"

	"github.com/Skotchmaster/online_cinema/internal/counters"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type AddCartItemRequest struct {
	MovieID uint `json:"movie_id"`
}

type CreateIntentRequest struct {
	OrderID uint `json:"order_id"`
}

type RateMovieRequest struct {
	Rating int `json:"rating"`
}

type CommentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

type CartItemResponse struct {
	MovieID uint      `json:"movie_id"`
	Name    string    `json:"name"`
	Price   string    `json:"price"`
	AddedAt time.Time `json:"added_at"`
}

type CartResponse struct {
	CartID uint               `json:"cart_id"`
	Items  []CartItemResponse `json:"items"`
	Total  string             `json:"total"`
}

func NewCartResponse(v *service.CartView) CartResponse {
	out := CartResponse{CartID: v.CartID, Items: make([]CartItemResponse, 0, len(v.Items)), Total: money(v.Total)}
	for _, it := range v.Items {
		out.Items = append(out.Items, CartItemResponse{MovieID: it.MovieID, Name: it.Name, Price: money(it.Price), AddedAt: it.AddedAt})
	}
	return out
}

type OrderItemResponse struct {
	ID           uint   `json:"id"`
	MovieID      uint   `json:"movie_id"`
	PriceAtOrder string `json:"price_at_order"`
}

type OrderResponse struct {
	ID          uint                `json:"id"`
	UserID      uint                `json:"user_id"`
	Status      models.OrderStatus  `json:"status"`
	TotalAmount string              `json:"total_amount"`
	CreatedAt   time.Time           `json:"created_at"`
	Items       []OrderItemResponse `json:"items"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	out := OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: money(o.TotalAmount),
		CreatedAt:   o.CreatedAt,
		Items:       make([]OrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemResponse{ID: it.ID, MovieID: it.MovieID, PriceAtOrder: money(it.PriceAtOrder)})
	}
	return out
}

func NewOrderList(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

type PaymentItemResponse struct {
	ID             uint   `json:"id"`
	OrderItemID    uint   `json:"order_item_id"`
	PriceAtPayment string `json:"price_at_payment"`
}

type PaymentResponse struct {
	ID                uint                  `json:"id"`
	UserID            uint                  `json:"user_id"`
	OrderID           uint                  `json:"order_id"`
	Status            models.PaymentStatus  `json:"status"`
	Amount            string                `json:"amount"`
	ExternalPaymentID string                `json:"external_payment_id"`
	CreatedAt         time.Time             `json:"created_at"`
	Items             []PaymentItemResponse `json:"items"`
}

func NewPaymentResponse(p *models.Payment) PaymentResponse {
	out := PaymentResponse{
		ID:                p.ID,
		UserID:            p.UserID,
		OrderID:           p.OrderID,
		Status:            p.Status,
		Amount:            money(p.Amount),
		ExternalPaymentID: p.ExternalPaymentID,
		CreatedAt:         p.CreatedAt,
		Items:             make([]PaymentItemResponse, 0, len(p.Items)),
	}
	for _, it := range p.Items {
		out.Items = append(out.Items, PaymentItemResponse{ID: it.ID, OrderItemID: it.OrderItemID, PriceAtPayment: money(it.PriceAtPayment)})
	}
	return out
}

func NewPaymentList(ps []models.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for i := range ps {
		out = append(out, NewPaymentResponse(&ps[i]))
	}
	return out
}

type IntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type PaymentStatusResponse struct {
	OrderID     uint               `json:"order_id"`
	OrderStatus models.OrderStatus `json:"order_status"`
	Status      string             `json:"status"`
}

type WebhookResponse struct {
	Status service.WebhookResult `json:"status"`
}

type RefundResponse struct {
	PaymentID        uint                 `json:"payment_id"`
	Status           models.PaymentStatus `json:"status"`
	ProviderRefundID string               `json:"provider_refund_id"`
}

type RatingResponse struct {
	MovieID       uint    `json:"movie_id"`
	RatingCount   int64   `json:"rating_count"`
	RatingAverage float64 `json:"rating_average"`
}

func NewRatingResponse(movieID uint, s counters.RatingStats) RatingResponse {
	return RatingResponse{MovieID: movieID, RatingCount: s.Count, RatingAverage: s.Average}
}

type RecountResponse struct {
	Movies int64 `json:"movies"`
}
