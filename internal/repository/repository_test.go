package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

// newTestRepository подключается к БД из TEST_DATABASE_URI; без неё
// интеграционные тесты пропускаются.
func newTestRepository(t *testing.T) *PostgresRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}

	repo, err := NewPostgresRepository(dsn)
	if err != nil {
		t.Fatalf("NewPostgresRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *PostgresRepository) *model.User {
	t.Helper()

	suffix := uuid.NewString()[:8]
	u := &model.User{
		ID:           uuid.New(),
		Email:        "reader-" + suffix + "@example.com",
		Username:     "reader-" + suffix,
		PasswordHash: "x",
		MembershipID: suffix,
		Role:         model.RoleMember,
		IsActive:     true,
	}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func seedBook(t *testing.T, repo *PostgresRepository, priceCents int64, stock int) *model.Book {
	t.Helper()

	suffix := uuid.NewString()[:8]
	b := &model.Book{
		ID:              uuid.New(),
		Title:           "Test Book " + suffix,
		ISBN:            suffix,
		Description:     "seeded for tests",
		PublicationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		PriceCents:      priceCents,
		StockQuantity:   stock,
		Language:        model.LanguageEnglish,
		Format:          model.FormatPaperback,
		Genre:           model.GenreSciFi,
		Slug:            "test-book-" + suffix,
	}
	if err := repo.CreateBook(context.Background(), b); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	return b
}

func bookStock(t *testing.T, repo *PostgresRepository, id uuid.UUID) int {
	t.Helper()

	b, err := repo.GetBookByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBookByID: %v", err)
	}
	return b.StockQuantity
}

// Заказ, падающий после первого списания со склада, не должен оставлять
// следов: две строки на одну книгу проходят проверку наличия, но второе
// условное списание не проходит, и транзакция откатывается целиком.
func TestPlaceOrder_FailureRollsBackStockDecrement(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := seedUser(t, repo)
	book := seedBook(t, repo, 2000, 5)

	lines := []OrderLine{
		{BookID: book.ID, Quantity: 3},
		{BookID: book.ID, Quantity: 3},
	}
	_, err := repo.PlaceOrder(ctx, user.ID, lines, time.Now())
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	if got := bookStock(t, repo, book.ID); got != 5 {
		t.Fatalf("stock after failed order = %d, want 5", got)
	}

	orders, err := repo.GetOrdersByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetOrdersByUser: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("orders after failed placement = %d, want 0", len(orders))
	}
}

func TestPlaceOrder_DecrementsStockOnSuccess(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := seedUser(t, repo)
	book := seedBook(t, repo, 2000, 5)

	o, err := repo.PlaceOrder(ctx, user.ID, []OrderLine{{BookID: book.ID, Quantity: 2}}, time.Now())
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if o.SubTotalCents != 4000 {
		t.Fatalf("subtotal = %d, want 4000", o.SubTotalCents)
	}

	if got := bookStock(t, repo, book.ID); got != 3 {
		t.Fatalf("stock after order = %d, want 3", got)
	}
}

// Итог корзины обязан равняться сумме подытогов позиций после каждой
// операции над ней.
func TestCart_TotalEqualsSumOfSubtotals(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := seedUser(t, repo)
	first := seedBook(t, repo, 1500, 10)
	second := seedBook(t, repo, 700, 10)

	checkTotal := func(step string) *model.Cart {
		t.Helper()
		cart, err := repo.GetOrCreateCart(ctx, user.ID)
		if err != nil {
			t.Fatalf("%s: GetOrCreateCart: %v", step, err)
		}
		var sum int64
		for _, item := range cart.Items {
			if item.SubtotalCents != item.UnitPriceCents*int64(item.Quantity) {
				t.Fatalf("%s: subtotal = %d for %d x %d", step, item.SubtotalCents, item.Quantity, item.UnitPriceCents)
			}
			sum += item.SubtotalCents
		}
		if cart.TotalAmountCents != sum {
			t.Fatalf("%s: total = %d, sum of subtotals = %d", step, cart.TotalAmountCents, sum)
		}
		return cart
	}

	if err := repo.AddCartItem(ctx, user.ID, first.ID, 2, first.PriceCents); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}
	checkTotal("after first add")

	if err := repo.AddCartItem(ctx, user.ID, second.ID, 1, second.PriceCents); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}
	cart := checkTotal("after second add")
	if cart.TotalAmountCents != 2*1500+700 {
		t.Fatalf("total = %d, want %d", cart.TotalAmountCents, 2*1500+700)
	}

	var firstItem uuid.UUID
	for _, item := range cart.Items {
		if item.BookID == first.ID {
			firstItem = item.ID
		}
	}

	if err := repo.UpdateCartItem(ctx, user.ID, firstItem, 5, first.PriceCents); err != nil {
		t.Fatalf("UpdateCartItem: %v", err)
	}
	checkTotal("after quantity update")

	if err := repo.RemoveCartItem(ctx, user.ID, firstItem); err != nil {
		t.Fatalf("RemoveCartItem: %v", err)
	}
	checkTotal("after remove")

	if err := repo.ClearCart(ctx, user.ID); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	cart = checkTotal("after clear")
	if len(cart.Items) != 0 || cart.TotalAmountCents != 0 {
		t.Fatalf("cleared cart: items = %d, total = %d", len(cart.Items), cart.TotalAmountCents)
	}
}
