package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/pricing"
	"github.com/mmeshcher/bookstore-system/internal/repository"
)

// GetCart возвращает корзину пользователя, создавая её при первом обращении.
func (s *Service) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return s.repo.GetOrCreateCart(ctx, userID)
}

// AddToCart добавляет книгу в корзину. Цена позиции фиксируется с учётом
// действующей на момент добавления скидки.
func (s *Service) AddToCart(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, validationErr("quantity must be positive")
	}

	b, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b.StockQuantity < quantity {
		return nil, repository.ErrInsufficientStock
	}

	unitPrice := pricing.UnitPriceCents(b, time.Now())
	if err := s.repo.AddCartItem(ctx, userID, bookID, quantity, unitPrice); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreateCart(ctx, userID)
}

// UpdateCartItem меняет количество позиции корзины. Цена позиции
// пересчитывается по текущей скидке книги.
func (s *Service) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, validationErr("quantity must be positive")
	}

	bookID, err := s.repo.GetCartItemBookID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	b, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b.StockQuantity < quantity {
		return nil, repository.ErrInsufficientStock
	}

	unitPrice := pricing.UnitPriceCents(b, time.Now())
	if err := s.repo.UpdateCartItem(ctx, userID, itemID, quantity, unitPrice); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreateCart(ctx, userID)
}

// CartSummary содержит предварительный расчёт стоимости корзины.
// Скидка считается по тем же правилам, что и при оформлении заказа,
// но накопительная скидка при этом не расходуется.
type CartSummary struct {
	ItemCount        int
	SubTotalCents    int64
	DiscountCents    int64
	LoyaltyApplied   bool
	FinalAmountCents int64
}

// GetCartSummary возвращает предварительный итог корзины с учётом скидок.
func (s *Service) GetCartSummary(ctx context.Context, userID uuid.UUID) (*CartSummary, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	itemCount := 0
	for _, it := range cart.Items {
		itemCount += it.Quantity
	}

	discount, loyaltyApplied := pricing.OrderDiscount(cart.TotalAmountCents, itemCount, u.IsDiscountAvailable)
	return &CartSummary{
		ItemCount:        itemCount,
		SubTotalCents:    cart.TotalAmountCents,
		DiscountCents:    discount,
		LoyaltyApplied:   loyaltyApplied,
		FinalAmountCents: cart.TotalAmountCents - discount,
	}, nil
}

// RemoveCartItem убирает позицию из корзины.
func (s *Service) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (*model.Cart, error) {
	if err := s.repo.RemoveCartItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreateCart(ctx, userID)
}

// ClearCart опустошает корзину пользователя.
func (s *Service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.repo.ClearCart(ctx, userID)
}
