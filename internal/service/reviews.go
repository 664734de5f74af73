package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return validationErr("rating must be between 1 and 5")
	}
	return nil
}

// CreateReview добавляет отзыв. Оставить отзыв можно только на книгу
// из завершённого заказа.
func (s *Service) CreateReview(ctx context.Context, userID, bookID uuid.UUID, rating int, comment *string) (*model.Review, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetBookByID(ctx, bookID); err != nil {
		return nil, err
	}

	purchased, err := s.repo.HasCompletedOrderWithBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		return nil, ErrPurchaseRequired
	}

	rv := &model.Review{
		ID:      uuid.New(),
		BookID:  bookID,
		UserID:  userID,
		Rating:  rating,
		Comment: comment,
	}
	if err := s.repo.CreateReview(ctx, rv); err != nil {
		return nil, err
	}
	return s.repo.GetReviewByID(ctx, rv.ID)
}

// ListReviews возвращает все отзывы магазина.
func (s *Service) ListReviews(ctx context.Context) ([]model.Review, error) {
	return s.repo.ListReviews(ctx)
}

// GetReviewsByBook возвращает отзывы на книгу.
func (s *Service) GetReviewsByBook(ctx context.Context, bookID uuid.UUID) ([]model.Review, error) {
	if _, err := s.repo.GetBookByID(ctx, bookID); err != nil {
		return nil, err
	}
	return s.repo.GetReviewsByBook(ctx, bookID)
}

// GetReviewsByUser возвращает отзывы пользователя.
func (s *Service) GetReviewsByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	return s.repo.GetReviewsByUser(ctx, userID)
}

// UpdateReview меняет оценку и текст отзыва. Чужой отзыв может менять
// только администратор.
func (s *Service) UpdateReview(ctx context.Context, requesterID uuid.UUID, requesterRole model.UserRole, id uuid.UUID, rating int, comment *string) (*model.Review, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}

	rv, err := s.repo.GetReviewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rv.UserID != requesterID && requesterRole != model.RoleAdmin {
		return nil, ErrForbidden
	}

	if err := s.repo.UpdateReview(ctx, id, rating, comment); err != nil {
		return nil, err
	}
	return s.repo.GetReviewByID(ctx, id)
}

// DeleteReview удаляет отзыв. Чужой отзыв может удалить только администратор.
func (s *Service) DeleteReview(ctx context.Context, requesterID uuid.UUID, requesterRole model.UserRole, id uuid.UUID) error {
	rv, err := s.repo.GetReviewByID(ctx, id)
	if err != nil {
		return err
	}
	if rv.UserID != requesterID && requesterRole != model.RoleAdmin {
		return ErrForbidden
	}
	return s.repo.DeleteReview(ctx, id)
}
