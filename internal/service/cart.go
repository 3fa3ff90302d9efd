package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/shopspring/decimal"
)

type CartService struct {
	repo *repo.GormRepo
}

func NewCartService(r *repo.GormRepo) *CartService {
	return &CartService{repo: r}
}

type CartLine struct {
	MovieID uint
	Name    string
	Price   decimal.Decimal
	AddedAt time.Time
}

type CartView struct {
	CartID uint
	UserID uint
	Items  []CartLine
	Total  decimal.Decimal
}

// GetCart returns the user's cart with current catalog prices. Lines whose
// movie was removed from the catalog are skipped.
func (s *CartService) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.MovieID)
	}
	movies, err := s.repo.MoviesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}

	view := &CartView{CartID: cart.ID, UserID: userID, Items: []CartLine{}, Total: decimal.Zero}
	for _, it := range cart.Items {
		m, ok := byID[it.MovieID]
		if !ok {
			continue
		}
		view.Items = append(view.Items, CartLine{MovieID: m.ID, Name: m.Name, Price: m.Price, AddedAt: it.AddedAt})
		view.Total = view.Total.Add(m.Price)
	}
	return view, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, movieID uint) (*models.CartItem, error) {
	if movieID == 0 {
		return nil, fmt.Errorf("%w: movie_id required", ErrValidation)
	}
	if _, err := s.repo.GetMovie(ctx, movieID); err != nil {
		return nil, notFoundOr(err, "movie not found")
	}

	paid, err := s.repo.PaidMovieIDs(ctx, userID, []uint{movieID})
	if err != nil {
		return nil, err
	}
	if len(paid) > 0 {
		return nil, fmt.Errorf("%w: movie %d already purchased", ErrConflict, movieID)
	}

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.AddCartItem(ctx, cart.ID, movieID)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, fmt.Errorf("%w: movie %d already in cart", ErrConflict, movieID)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, movieID uint) error {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	removed, err := s.repo.RemoveCartItem(ctx, cart.ID, movieID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: movie %d is not in cart", ErrNotFound, movieID)
	}
	return nil
}
