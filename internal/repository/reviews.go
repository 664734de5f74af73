package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

const reviewColumns = `r.id, r.user_id, u.username, r.book_id, b.title, r.rating, r.comment, r.created_at, r.last_updated`

func scanReview(row pgx.Row) (*model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.Username, &rv.BookID, &rv.BookTitle,
		&rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &rv, nil
}

// CreateReview добавляет отзыв. Повторный отзыв того же пользователя на ту же
// книгу отклоняется ограничением уникальности.
func (r *PostgresRepository) CreateReview(ctx context.Context, rv *model.Review) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO reviews (id, user_id, book_id, rating, comment)
		 VALUES ($1, $2, $3, $4, $5)`,
		rv.ID, rv.UserID, rv.BookID, rv.Rating, rv.Comment,
	)
	if err != nil {
		if isUniqueViolation(err, "reviews_user_id_book_id_key") {
			return ErrAlreadyReviewed
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetReviewByID возвращает отзыв по идентификатору.
func (r *PostgresRepository) GetReviewByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+`
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 JOIN books b ON b.id = r.book_id
		 WHERE r.id = $1`,
		id)
	return scanReview(row)
}

func (r *PostgresRepository) listReviewsWhere(ctx context.Context, cond string, args ...any) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reviewColumns+`
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 JOIN books b ON b.id = r.book_id
		 WHERE `+cond+`
		 ORDER BY r.created_at DESC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("select reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

// ListReviews возвращает все отзывы, новые первыми.
func (r *PostgresRepository) ListReviews(ctx context.Context) ([]model.Review, error) {
	return r.listReviewsWhere(ctx, `TRUE`)
}

// GetReviewsByBook возвращает отзывы на книгу, новые первыми.
func (r *PostgresRepository) GetReviewsByBook(ctx context.Context, bookID uuid.UUID) ([]model.Review, error) {
	return r.listReviewsWhere(ctx, `r.book_id = $1`, bookID)
}

// GetReviewsByUser возвращает отзывы пользователя.
func (r *PostgresRepository) GetReviewsByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	return r.listReviewsWhere(ctx, `r.user_id = $1`, userID)
}

// UpdateReview меняет оценку и текст отзыва.
func (r *PostgresRepository) UpdateReview(ctx context.Context, id uuid.UUID, rating int, comment *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE reviews SET rating = $2, comment = $3, last_updated = now() WHERE id = $1`,
		id, rating, comment,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// DeleteReview удаляет отзыв.
func (r *PostgresRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}
