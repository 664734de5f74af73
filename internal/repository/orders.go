package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/bookstore-system/internal/codes"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/pricing"
)

// Ошибки оформления и смены статуса заказа.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Каждые loyaltyOrderStep неотменённых заказов пользователю начисляется
// одноразовая накопительная скидка.
const loyaltyOrderStep = 10

// OrderLine описывает запрошенную позицию при прямом оформлении заказа.
type OrderLine struct {
	BookID   uuid.UUID
	Quantity int
}

// pricedLine — позиция заказа с зафиксированной ценой; остаток на складе
// к этому моменту уже проверен и списан внутри транзакции.
type pricedLine struct {
	bookID            uuid.UUID
	title             string
	quantity          int
	unitPriceCents    int64
	unitDiscountCents int64
}

const orderColumns = `o.id, o.user_id, u.email, u.membership_id, o.claim_code, o.status,
	 o.sub_total_cents, o.discount_amount_cents, o.final_total_cents,
	 o.is_cancelled, o.cancellation_date, o.order_date, o.last_updated`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.UserID, &o.UserEmail, &o.UserMembershipID, &o.ClaimCode, &o.Status,
		&o.SubTotalCents, &o.DiscountAmountCents, &o.FinalTotalCents,
		&o.IsCancelled, &o.CancellationDate, &o.OrderDate, &o.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

// PlaceOrder оформляет заказ по явному списку позиций. Проверка остатков,
// списание со склада, расчёт скидок, фиксация накопительной скидки и вставка
// заказа выполняются в одной транзакции: сбой на любом шаге откатывает всё,
// включая изменения склада.
func (r *PostgresRepository) PlaceOrder(ctx context.Context, userID uuid.UUID, lines []OrderLine, now time.Time) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	priced := make([]pricedLine, 0, len(lines))
	for _, line := range lines {
		var b model.Book
		err := tx.QueryRow(ctx,
			`SELECT id, title, price_cents, stock_quantity, discount_percentage, discount_start_date, discount_end_date
			 FROM books WHERE id = $1 FOR UPDATE`,
			line.BookID,
		).Scan(&b.ID, &b.Title, &b.PriceCents, &b.StockQuantity,
			&b.DiscountPercentage, &b.DiscountStartDate, &b.DiscountEndDate)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrBookNotFound, line.BookID)
			}
			return nil, fmt.Errorf("select book for order: %w", err)
		}

		if b.StockQuantity < line.Quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, b.Title)
		}

		priced = append(priced, pricedLine{
			bookID:            b.ID,
			title:             b.Title,
			quantity:          line.Quantity,
			unitPriceCents:    pricing.UnitPriceCents(&b, now),
			unitDiscountCents: pricing.UnitDiscountCents(&b, now),
		})
	}

	order, err := r.placeOrderTx(ctx, tx, userID, priced)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// PlaceOrderFromCart оформляет заказ из корзины пользователя, используя цены,
// зафиксированные при добавлении в корзину. Очистка корзины входит в ту же
// транзакцию, что и вставка заказа и списание со склада.
func (r *PostgresRepository) PlaceOrderFromCart(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var cartID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("get cart id: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT ci.book_id, b.title, ci.quantity, ci.unit_price_cents, b.price_cents, b.stock_quantity
		 FROM cart_items ci
		 JOIN books b ON b.id = ci.book_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.created_at
		 FOR UPDATE OF b`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("select cart items for order: %w", err)
	}

	var priced []pricedLine
	for rows.Next() {
		var (
			line       pricedLine
			priceCents int64
			stock      int
		)
		if err := rows.Scan(&line.bookID, &line.title, &line.quantity, &line.unitPriceCents, &priceCents, &stock); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart item for order: %w", err)
		}
		if stock < line.quantity {
			rows.Close()
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, line.title)
		}
		line.unitDiscountCents = priceCents - line.unitPriceCents
		priced = append(priced, line)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart items rows: %w", err)
	}

	if len(priced) == 0 {
		return nil, ErrEmptyCart
	}

	order, err := r.placeOrderTx(ctx, tx, userID, priced)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	if err := recalcCartTotal(ctx, tx, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

func (r *PostgresRepository) placeOrderTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, priced []pricedLine) (*model.Order, error) {
	// Блокируем строку пользователя: чтение и сброс накопительной скидки
	// должны быть сериализованы с параллельными оформлениями заказов.
	var (
		email, membershipID string
		loyaltyAvailable    bool
	)
	err := tx.QueryRow(ctx,
		`SELECT email, membership_id, is_discount_available FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&email, &membershipID, &loyaltyAvailable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select user for order: %w", err)
	}

	var (
		subTotal  int64
		itemCount int
	)
	for _, line := range priced {
		subTotal += line.unitPriceCents * int64(line.quantity)
		itemCount += line.quantity
	}

	discount, loyaltyUsed := pricing.OrderDiscount(subTotal, itemCount, loyaltyAvailable)

	order := &model.Order{
		ID:                  uuid.New(),
		UserID:              userID,
		UserEmail:           email,
		UserMembershipID:    membershipID,
		Status:              model.OrderStatusPending,
		SubTotalCents:       subTotal,
		DiscountAmountCents: discount,
		FinalTotalCents:     subTotal - discount,
	}

	// Код выдачи уникален глобально; при коллизии константного индекса
	// вставка повторяется с новым кодом через savepoint.
	const maxClaimAttempts = 10
	inserted := false
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		order.ClaimCode = codes.ClaimCode()

		sp, err := tx.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin savepoint: %w", err)
		}
		_, err = sp.Exec(ctx,
			`INSERT INTO orders (id, user_id, claim_code, status, sub_total_cents, discount_amount_cents, final_total_cents)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			order.ID, order.UserID, order.ClaimCode, string(order.Status),
			order.SubTotalCents, order.DiscountAmountCents, order.FinalTotalCents,
		)
		if err != nil {
			sp.Rollback(ctx)
			if isUniqueViolation(err, "orders_claim_code_key") {
				continue
			}
			return nil, fmt.Errorf("insert order: %w", err)
		}
		if err := sp.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit savepoint: %w", err)
		}
		inserted = true
		break
	}
	if !inserted {
		return nil, fmt.Errorf("allocate claim code: too many collisions")
	}

	for _, line := range priced {
		item := model.OrderItem{
			ID:                  uuid.New(),
			OrderID:             order.ID,
			BookID:              line.bookID,
			BookTitle:           line.title,
			Quantity:            line.quantity,
			PriceAtTimeCents:    line.unitPriceCents,
			DiscountAtTimeCents: line.unitDiscountCents,
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, book_id, quantity, price_at_time_cents, discount_at_time_cents)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.OrderID, item.BookID, item.Quantity, item.PriceAtTimeCents, item.DiscountAtTimeCents,
		); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		order.Items = append(order.Items, item)

		tag, err := tx.Exec(ctx,
			`UPDATE books
			 SET stock_quantity = stock_quantity - $2, sold_count = sold_count + $2, last_updated = now()
			 WHERE id = $1 AND stock_quantity >= $2`,
			line.bookID, line.quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, line.title)
		}
	}

	// Накопительная скидка расходуется и начисляется в той же транзакции,
	// что и заказ: двойное погашение невозможно.
	var orderCount int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND NOT is_cancelled`, userID,
	).Scan(&orderCount); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	newFlag := loyaltyAvailable && !loyaltyUsed
	if orderCount%loyaltyOrderStep == 0 {
		newFlag = true
	}
	if newFlag != loyaltyAvailable {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET is_discount_available = $2, last_updated = now() WHERE id = $1`,
			userID, newFlag,
		); err != nil {
			return nil, fmt.Errorf("update loyalty flag: %w", err)
		}
	}

	order.OrderDate = time.Now()
	return order, nil
}

func (r *PostgresRepository) attachOrderItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.book_id, b.title, oi.quantity,
		        oi.price_at_time_cents, oi.discount_at_time_cents, oi.created_at
		 FROM order_items oi
		 JOIN books b ON b.id = oi.book_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.created_at`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.BookTitle, &it.Quantity,
			&it.PriceAtTimeCents, &it.DiscountAtTimeCents, &it.CreatedAt); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return rows.Err()
}

func (r *PostgresRepository) getOrderWhere(ctx context.Context, cond string, arg any) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders o JOIN users u ON u.id = o.user_id WHERE `+cond, arg)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	orders := []model.Order{*o}
	if err := r.attachOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// GetOrderByID возвращает заказ с позициями.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOrderWhere(ctx, `o.id = $1`, id)
}

// GetOrderByClaimCode возвращает заказ по коду выдачи.
func (r *PostgresRepository) GetOrderByClaimCode(ctx context.Context, claimCode string) (*model.Order, error) {
	return r.getOrderWhere(ctx, `o.claim_code = $1`, claimCode)
}

func (r *PostgresRepository) listOrdersWhere(ctx context.Context, cond string, args ...any) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN users u ON u.id = o.user_id`
	if cond != "" {
		query += ` WHERE ` + cond
	}
	query += ` ORDER BY o.order_date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrders возвращает все заказы магазина.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	return r.listOrdersWhere(ctx, "")
}

// GetOrdersByUser возвращает заказы пользователя.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.listOrdersWhere(ctx, `o.user_id = $1`, userID)
}

// AdvanceOrderStatus переводит заказ из статуса from в статус to.
// Условие в WHERE делает переход безопасным при конкурентных запросах.
func (r *PostgresRepository) AdvanceOrderStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, last_updated = now()
		 WHERE id = $1 AND status = $2 AND NOT is_cancelled`,
		id, string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("advance order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check order exists: %w", err)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrInvalidTransition
	}
	return nil
}

// CancelOrder отменяет заказ и возвращает списанные остатки на склад
// в одной транзакции. Завершённый или уже отменённый заказ отменить нельзя.
func (r *PostgresRepository) CancelOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o JOIN users u ON u.id = o.user_id
		 WHERE o.id = $1
		 FOR UPDATE OF o`,
		id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	if order.IsCancelled || order.Status == model.OrderStatusCompleted {
		return nil, ErrInvalidTransition
	}

	if _, err := tx.Exec(ctx,
		`UPDATE books b
		 SET stock_quantity = b.stock_quantity + oi.quantity,
		     sold_count = b.sold_count - oi.quantity,
		     last_updated = now()
		 FROM order_items oi
		 WHERE oi.order_id = $1 AND oi.book_id = b.id`,
		id,
	); err != nil {
		return nil, fmt.Errorf("restore stock: %w", err)
	}

	now := time.Now()
	if _, err := tx.Exec(ctx,
		`UPDATE orders
		 SET status = $2, is_cancelled = TRUE, cancellation_date = $3, last_updated = now()
		 WHERE id = $1`,
		id, string(model.OrderStatusCancelled), now,
	); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	order.Status = model.OrderStatusCancelled
	order.IsCancelled = true
	order.CancellationDate = &now

	orders := []model.Order{*order}
	if err := r.attachOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// HasCompletedOrderWithBook сообщает, есть ли у пользователя завершённый
// неотменённый заказ, содержащий указанную книгу.
func (r *PostgresRepository) HasCompletedOrderWithBook(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var has bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		    SELECT 1
		    FROM orders o
		    JOIN order_items oi ON oi.order_id = o.id
		    WHERE o.user_id = $1 AND oi.book_id = $2 AND o.status = $3 AND NOT o.is_cancelled)`,
		userID, bookID, string(model.OrderStatusCompleted),
	).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("check completed order: %w", err)
	}
	return has, nil
}
