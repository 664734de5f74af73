package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/bookstore-system/internal/email"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
)

func orderSummary(o *model.Order) email.OrderSummary {
	sum := email.OrderSummary{
		ClaimCode:           o.ClaimCode,
		SubTotalCents:       o.SubTotalCents,
		DiscountAmountCents: o.DiscountAmountCents,
		FinalTotalCents:     o.FinalTotalCents,
	}
	for _, it := range o.Items {
		sum.Items = append(sum.Items, email.OrderItem{
			Title:          it.BookTitle,
			Quantity:       it.Quantity,
			UnitPriceCents: it.PriceAtTimeCents,
		})
	}
	return sum
}

// Сбой почты не отменяет уже зафиксированный заказ.
func (s *Service) notifyOrder(o *model.Order, send func(string, email.OrderSummary) error) {
	if err := send(o.UserEmail, orderSummary(o)); err != nil {
		s.logger.Warn("order notification failed",
			zap.String("order_id", o.ID.String()),
			zap.String("claim_code", o.ClaimCode),
			zap.Error(err),
		)
	}
}

// PlaceOrder оформляет заказ по явному списку позиций и отправляет
// подтверждение на почту.
func (s *Service) PlaceOrder(ctx context.Context, userID uuid.UUID, lines []repository.OrderLine) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, validationErr("order must contain at least one item")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, validationErr("quantity must be positive")
		}
	}

	o, err := s.repo.PlaceOrder(ctx, userID, lines, time.Now())
	if err != nil {
		return nil, err
	}

	s.notifyOrder(o, s.notifier.SendOrderConfirmation)
	return o, nil
}

// PlaceOrderFromCart оформляет заказ из корзины пользователя.
func (s *Service) PlaceOrderFromCart(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	o, err := s.repo.PlaceOrderFromCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.notifyOrder(o, s.notifier.SendOrderConfirmation)
	return o, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

// GetOrderByClaimCode возвращает заказ по коду выдачи.
func (s *Service) GetOrderByClaimCode(ctx context.Context, claimCode string) (*model.Order, error) {
	return s.repo.GetOrderByClaimCode(ctx, claimCode)
}

// ListOrders возвращает все заказы магазина.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// GetOrdersByUser возвращает заказы пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// MarkOrderReady переводит заказ в статус готовности к выдаче и уведомляет
// покупателя.
func (s *Service) MarkOrderReady(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if err := s.repo.AdvanceOrderStatus(ctx, id, model.OrderStatusPending, model.OrderStatusReadyForPickup); err != nil {
		return nil, err
	}

	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifyOrder(o, s.notifier.SendOrderReadyForPickup)
	return o, nil
}

// CompleteOrder подтверждает выдачу заказа по коду выдачи. Покупатель
// обязан предъявить членский номер владельца заказа; сравнение строгое,
// с учётом регистра.
func (s *Service) CompleteOrder(ctx context.Context, claimCode, membershipID string) (*model.Order, error) {
	if membershipID == "" {
		return nil, validationErr("membership id is required")
	}

	o, err := s.repo.GetOrderByClaimCode(ctx, claimCode)
	if err != nil {
		return nil, err
	}
	if o.UserMembershipID != membershipID {
		return nil, ErrMembershipMismatch
	}

	if err := s.repo.AdvanceOrderStatus(ctx, o.ID, model.OrderStatusReadyForPickup, model.OrderStatusCompleted); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatusCompleted

	s.notifyOrder(o, s.notifier.SendOrderCompleted)
	return o, nil
}

// CancelOrder отменяет заказ. Покупатель может отменить только свой заказ,
// персонал — любой.
func (s *Service) CancelOrder(ctx context.Context, requesterID uuid.UUID, requesterRole model.UserRole, id uuid.UUID) (*model.Order, error) {
	if requesterRole == model.RoleMember {
		o, err := s.repo.GetOrderByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if o.UserID != requesterID {
			return nil, ErrForbidden
		}
	}

	o, err := s.repo.CancelOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifyOrder(o, s.notifier.SendOrderCancellation)
	return o, nil
}
