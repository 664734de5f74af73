package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

func (r *PostgresRepository) cartItems(ctx context.Context, q pgx.Tx, cartID uuid.UUID) ([]model.CartItem, error) {
	var rows pgx.Rows
	var err error
	query := `SELECT ci.id, ci.cart_id, ci.book_id, b.title, ci.quantity, ci.unit_price_cents,
	                 ci.subtotal_cents, ci.created_at, ci.last_updated
	          FROM cart_items ci
	          JOIN books b ON b.id = ci.book_id
	          WHERE ci.cart_id = $1
	          ORDER BY ci.created_at`
	if q != nil {
		rows, err = q.Query(ctx, query, cartID)
	} else {
		rows, err = r.pool.Query(ctx, query, cartID)
	}
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.BookID, &it.BookTitle, &it.Quantity,
			&it.UnitPriceCents, &it.SubtotalCents, &it.CreatedAt, &it.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetOrCreateCart возвращает корзину пользователя, создавая пустую при
// первом обращении. Содержимое всегда читается заново из хранилища.
func (r *PostgresRepository) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure cart: %w", err)
	}

	var c model.Cart
	err = r.pool.QueryRow(ctx,
		`SELECT id, user_id, total_amount_cents, created_at, last_updated FROM carts WHERE user_id = $1`,
		userID,
	).Scan(&c.ID, &c.UserID, &c.TotalAmountCents, &c.CreatedAt, &c.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	c.Items, err = r.cartItems(ctx, nil, c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// recalcCartTotal пересчитывает сумму корзины из позиций: сумма никогда не
// корректируется на месте, что исключает её расхождение с позициями.
func recalcCartTotal(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE carts
		 SET total_amount_cents = (SELECT COALESCE(SUM(subtotal_cents), 0) FROM cart_items WHERE cart_id = $1),
		     last_updated = now()
		 WHERE id = $1`,
		cartID,
	)
	if err != nil {
		return fmt.Errorf("recalc cart total: %w", err)
	}
	return nil
}

// AddCartItem добавляет позицию в корзину пользователя со снимком цены
// и пересчитывает сумму корзины в той же транзакции.
func (r *PostgresRepository) AddCartItem(ctx context.Context, userID, bookID uuid.UUID, quantity int, unitPriceCents int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID); err != nil {
		return fmt.Errorf("ensure cart: %w", err)
	}

	var cartID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID); err != nil {
		return fmt.Errorf("get cart id: %w", err)
	}

	subtotal := unitPriceCents * int64(quantity)
	_, err = tx.Exec(ctx,
		`INSERT INTO cart_items (id, cart_id, book_id, quantity, unit_price_cents, subtotal_cents)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), cartID, bookID, quantity, unitPriceCents, subtotal,
	)
	if err != nil {
		if isUniqueViolation(err, "cart_items_cart_id_book_id_key") {
			return ErrBookAlreadyInCart
		}
		return fmt.Errorf("insert cart item: %w", err)
	}

	if err := recalcCartTotal(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateCartItem меняет количество позиции, заново снимая текущую цену,
// и пересчитывает сумму корзины в той же транзакции.
func (r *PostgresRepository) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int, unitPriceCents int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	subtotal := unitPriceCents * int64(quantity)
	tag, err := tx.Exec(ctx,
		`UPDATE cart_items ci
		 SET quantity = $3, unit_price_cents = $4, subtotal_cents = $5, last_updated = now()
		 FROM carts c
		 WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $1`,
		userID, itemID, quantity, unitPriceCents, subtotal,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartItemNotFound
	}

	var cartID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT cart_id FROM cart_items WHERE id = $1`, itemID).Scan(&cartID); err != nil {
		return fmt.Errorf("get cart id: %w", err)
	}
	if err := recalcCartTotal(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetCartItemBookID возвращает книгу, на которую ссылается позиция корзины пользователя.
func (r *PostgresRepository) GetCartItemBookID(ctx context.Context, userID, itemID uuid.UUID) (uuid.UUID, error) {
	var bookID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT ci.book_id
		 FROM cart_items ci
		 JOIN carts c ON c.id = ci.cart_id
		 WHERE ci.id = $2 AND c.user_id = $1`,
		userID, itemID,
	).Scan(&bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrCartItemNotFound
		}
		return uuid.Nil, fmt.Errorf("get cart item book: %w", err)
	}
	return bookID, nil
}

// RemoveCartItem удаляет позицию корзины пользователя и пересчитывает сумму.
func (r *PostgresRepository) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var cartID uuid.UUID
	err = tx.QueryRow(ctx,
		`DELETE FROM cart_items ci
		 USING carts c
		 WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $1
		 RETURNING ci.cart_id`,
		userID, itemID,
	).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartItemNotFound
		}
		return fmt.Errorf("delete cart item: %w", err)
	}

	if err := recalcCartTotal(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ClearCart удаляет все позиции корзины пользователя и обнуляет сумму.
func (r *PostgresRepository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var cartID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// корзины ещё нет — чистить нечего
			return nil
		}
		return fmt.Errorf("get cart id: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if err := recalcCartTotal(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
