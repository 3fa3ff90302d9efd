package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	repo   *repo.GormRepo
	events orderEvents
}

func NewOrderService(r *repo.GormRepo, pub EventPublisher, topic string) *OrderService {
	return &OrderService{repo: r, events: orderEvents{pub: pub, topic: topic}}
}

// PlaceOrder snapshots the user's cart into a pending order. The cart is left
// untouched; paid movies are removed from it when the payment is confirmed.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint) (*models.Order, error) {
	movies, lines, err := s.repo.CartMovies(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lines == 0 {
		return nil, fmt.Errorf("%w: Cart is empty.", ErrConflict)
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: No valid movies in the cart.", ErrNotFound)
	}

	ids := make([]uint, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	paid, err := s.repo.PaidMovieIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	if len(paid) > 0 {
		return nil, fmt.Errorf("%w: movies already purchased: %s", ErrConflict, joinIDs(paid))
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(movies))
	for _, m := range movies {
		total = total.Add(m.Price)
		items = append(items, models.OrderItem{MovieID: m.ID, PriceAtOrder: m.Price})
	}

	order := &models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: total,
		Items:       items,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	s.events.emit(ctx, OrderCreated, order, order.Status)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	o, err := s.repo.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.repo.ListUserOrders(ctx, userID)
}

func (s *OrderService) AdminListOrders(ctx context.Context, q ListQuery) ([]models.Order, error) {
	f, err := parseListQuery(q, func(v string) bool { return models.OrderStatus(v).Valid() })
	if err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx, f)
}

// CancelOrder is a compare-and-set from pending so that it cannot overwrite
// a concurrent payment confirmation.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	o, err := s.repo.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	if o.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: order %d is %s, only pending orders can be canceled", ErrInvalidState, o.ID, o.Status)
	}

	err = s.repo.CompareAndSetOrderStatus(ctx, o.ID, models.OrderStatusPending, models.OrderStatusCanceled)
	switch {
	case errors.Is(err, repo.ErrStale):
		return nil, fmt.Errorf("%w: order %d changed status concurrently", ErrInvalidState, o.ID)
	case err != nil:
		return nil, notFoundOr(err, "order not found")
	}

	o.Status = models.OrderStatusCanceled
	s.events.emit(ctx, OrderCanceled, o, o.Status)
	return o, nil
}

const (
	PaymentStateProcessing = "processing"
	PaymentStateSuccess    = "success"
	PaymentStateRefunded   = "refunded"
	PaymentStateCanceled   = "canceled"
)

type PaymentState struct {
	OrderID     uint
	OrderStatus models.OrderStatus
	Status      string
}

func (s *OrderService) GetPaymentStatus(ctx context.Context, userID, orderID uint) (*PaymentState, error) {
	o, err := s.repo.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	p, err := s.repo.LatestOrderPayment(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	state := &PaymentState{OrderID: o.ID, OrderStatus: o.Status, Status: PaymentStateProcessing}
	if p != nil {
		switch p.Status {
		case models.PaymentStatusSuccessful:
			state.Status = PaymentStateSuccess
		case models.PaymentStatusRefunded:
			state.Status = PaymentStateRefunded
		case models.PaymentStatusCanceled:
			state.Status = PaymentStateCanceled
		}
	}
	return state, nil
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
