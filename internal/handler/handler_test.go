package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/bookstore-system/internal/middleware"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
	"github.com/mmeshcher/bookstore-system/internal/service"
)

var errUnexpectedCall = errors.New("unexpected service call")

type stubService struct {
	user    *model.User
	userErr error

	book    *model.Book
	bookErr error
	books   []model.Book

	cart    *model.Cart
	cartErr error

	order    *model.Order
	orderErr error
	orders   []model.Order

	review    *model.Review
	reviewErr error

	announcement  *model.Announcement
	announcements []model.Announcement

	gotMembershipID string
}

func (s *stubService) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) ListUsers(ctx context.Context) ([]model.User, error) { return nil, nil }

func (s *stubService) UpdateProfile(ctx context.Context, id uuid.UUID, email, username string) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	return s.userErr
}

func (s *stubService) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	return true, s.userErr
}

func (s *stubService) SetUserRole(ctx context.Context, id uuid.UUID, role model.UserRole) error {
	return s.userErr
}

func (s *stubService) DeleteUser(ctx context.Context, id uuid.UUID) error { return s.userErr }

func (s *stubService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.userErr
}

func (s *stubService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return s.userErr
}

func (s *stubService) ToggleBookmark(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	return true, s.bookErr
}

func (s *stubService) IsBookmarked(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	return false, s.bookErr
}

func (s *stubService) GetBookmarks(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	return s.books, nil
}

func (s *stubService) CreateBook(ctx context.Context, in service.BookInput) (*model.Book, error) {
	return s.book, s.bookErr
}

func (s *stubService) UpdateBook(ctx context.Context, id uuid.UUID, in service.BookInput) (*model.Book, error) {
	return s.book, s.bookErr
}

func (s *stubService) DeleteBook(ctx context.Context, id uuid.UUID) error { return s.bookErr }

func (s *stubService) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return s.book, s.bookErr
}

func (s *stubService) GetBookBySlug(ctx context.Context, slug string) (*model.Book, error) {
	return s.book, s.bookErr
}

func (s *stubService) GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	return s.book, s.bookErr
}

func (s *stubService) ListBooks(ctx context.Context, f repository.BookFilter) ([]model.Book, error) {
	return s.books, s.bookErr
}

func (s *stubService) GetBestSellers(ctx context.Context, limit int) ([]model.Book, error) {
	return s.books, nil
}

func (s *stubService) GetNewReleases(ctx context.Context) ([]model.Book, error) { return s.books, nil }
func (s *stubService) GetNewArrivals(ctx context.Context) ([]model.Book, error) { return s.books, nil }
func (s *stubService) GetComingSoon(ctx context.Context) ([]model.Book, error)  { return s.books, nil }
func (s *stubService) GetDeals(ctx context.Context) ([]model.Book, error)       { return s.books, nil }

func (s *stubService) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return s.bookErr
}

func (s *stubService) SetDiscount(ctx context.Context, id uuid.UUID, percentage *float64, start, end *time.Time) error {
	return s.bookErr
}

func (s *stubService) UploadBookImage(ctx context.Context, id uuid.UUID, filename string, file io.Reader) (string, error) {
	return "", errUnexpectedCall
}

func (s *stubService) GetAverageRating(ctx context.Context, bookID uuid.UUID) (float64, error) {
	return 4.5, s.bookErr
}

func (s *stubService) GetBooksByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Book, error) {
	return s.books, nil
}

func (s *stubService) GetBooksByPublisher(ctx context.Context, publisherID uuid.UUID) ([]model.Book, error) {
	return s.books, nil
}

func (s *stubService) CreateAuthor(ctx context.Context, name string, email *string) (*model.Author, error) {
	return &model.Author{ID: uuid.New(), Name: name, Email: email}, nil
}

func (s *stubService) GetAuthor(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	return nil, repository.ErrAuthorNotFound
}

func (s *stubService) ListAuthors(ctx context.Context) ([]model.Author, error) { return nil, nil }

func (s *stubService) UpdateAuthor(ctx context.Context, id uuid.UUID, name string, email *string) (*model.Author, error) {
	return nil, errUnexpectedCall
}

func (s *stubService) DeleteAuthor(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubService) CreatePublisher(ctx context.Context, name string, email *string) (*model.Publisher, error) {
	return &model.Publisher{ID: uuid.New(), Name: name, Email: email}, nil
}

func (s *stubService) GetPublisher(ctx context.Context, id uuid.UUID) (*model.Publisher, error) {
	return nil, repository.ErrPublisherNotFound
}

func (s *stubService) ListPublishers(ctx context.Context) ([]model.Publisher, error) {
	return nil, nil
}

func (s *stubService) UpdatePublisher(ctx context.Context, id uuid.UUID, name string, email *string) (*model.Publisher, error) {
	return nil, errUnexpectedCall
}

func (s *stubService) DeletePublisher(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return s.cart, s.cartErr
}

func (s *stubService) GetCartSummary(ctx context.Context, userID uuid.UUID) (*service.CartSummary, error) {
	if s.cartErr != nil {
		return nil, s.cartErr
	}
	return &service.CartSummary{}, nil
}

func (s *stubService) AddToCart(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*model.Cart, error) {
	return s.cart, s.cartErr
}

func (s *stubService) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	return s.cart, s.cartErr
}

func (s *stubService) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (*model.Cart, error) {
	return s.cart, s.cartErr
}

func (s *stubService) ClearCart(ctx context.Context, userID uuid.UUID) error { return s.cartErr }

func (s *stubService) PlaceOrder(ctx context.Context, userID uuid.UUID, lines []repository.OrderLine) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) PlaceOrderFromCart(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) GetOrderByClaimCode(ctx context.Context, claimCode string) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.orders, s.orderErr
}

func (s *stubService) GetOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orders, s.orderErr
}

func (s *stubService) MarkOrderReady(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) CompleteOrder(ctx context.Context, claimCode, membershipID string) (*model.Order, error) {
	s.gotMembershipID = membershipID
	return s.order, s.orderErr
}

func (s *stubService) CancelOrder(ctx context.Context, requesterID uuid.UUID, requesterRole model.UserRole, id uuid.UUID) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) CreateReview(ctx context.Context, userID, bookID uuid.UUID, rating int, comment *string) (*model.Review, error) {
	return s.review, s.reviewErr
}

func (s *stubService) ListReviews(ctx context.Context) ([]model.Review, error) { return nil, nil }

func (s *stubService) GetReviewsByBook(ctx context.Context, bookID uuid.UUID) ([]model.Review, error) {
	return nil, nil
}

func (s *stubService) GetReviewsByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error) {
	return nil, nil
}

func (s *stubService) UpdateReview(ctx context.Context, requesterID uuid.UUID, requesterRole model.UserRole, id uuid.UUID, rating int, comment *string) (*model.Review, error) {
	return s.review, s.reviewErr
}

func (s *stubService) DeleteReview(ctx context.Context, requesterID uuid.UUID, requesterRole model.UserRole, id uuid.UUID) error {
	return s.reviewErr
}

func (s *stubService) CreateAnnouncement(ctx context.Context, a *model.Announcement) (*model.Announcement, error) {
	return s.announcement, nil
}

func (s *stubService) GetAnnouncement(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	return s.announcement, nil
}

func (s *stubService) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	return s.announcements, nil
}

func (s *stubService) ListActiveAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	return s.announcements, nil
}

func (s *stubService) UpdateAnnouncement(ctx context.Context, a *model.Announcement) (*model.Announcement, error) {
	return s.announcement, nil
}

func (s *stubService) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubService) ToggleAnnouncement(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}

func newTestHandler(t *testing.T, svc *stubService) (*Handler, *middleware.AuthMiddleware) {
	t.Helper()
	auth := middleware.NewAuthMiddleware("test-secret")
	return NewHandler(svc, zap.NewNop(), auth), auth
}

func tokenFor(t *testing.T, auth *middleware.AuthMiddleware, role model.UserRole) (string, uuid.UUID) {
	t.Helper()
	u := &model.User{ID: uuid.New(), Email: "reader@example.com", Username: "reader", Role: role}
	token, err := auth.IssueToken(u)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token, u.ID
}

// decodeData разбирает конверт ответа {message, data} и извлекает data в out.
func decodeData(t *testing.T, body []byte, out any) string {
	t.Helper()

	var resp struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if resp.Message == "" {
		t.Fatalf("empty message in response envelope: %s", body)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
	}
	return resp.Message
}

func doRequest(t *testing.T, h *Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "reader@example.com", Username: "reader", Role: model.RoleMember}

	tests := []struct {
		name       string
		svc        *stubService
		wantStatus int
	}{
		{name: "created", svc: &stubService{user: user}, wantStatus: http.StatusCreated},
		{name: "email taken", svc: &stubService{userErr: repository.ErrEmailTaken}, wantStatus: http.StatusConflict},
		{name: "validation", svc: &stubService{userErr: service.ErrValidation}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, tt.svc)
			w := doRequest(t, h, http.MethodPost, "/api/auth/register", "",
				registerRequest{Email: "reader@example.com", Username: "reader", Password: "password123"})

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusCreated {
				var resp authResponse
				decodeData(t, w.Body.Bytes(), &resp)
				if resp.Token == "" {
					t.Fatalf("empty token in response")
				}
				if resp.User.Email != user.Email {
					t.Fatalf("email = %s", resp.User.Email)
				}
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{userErr: service.ErrInvalidCredentials})
	w := doRequest(t, h, http.MethodPost, "/api/auth/login", "",
		loginRequest{Email: "reader@example.com", Password: "wrong"})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGetBook(t *testing.T) {
	pct := 20.0
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	book := &model.Book{
		ID:                 uuid.New(),
		Title:              "The Go Programming Language",
		PriceCents:         4000,
		DiscountPercentage: &pct,
		DiscountStartDate:  &past,
		DiscountEndDate:    &future,
	}

	h, _ := newTestHandler(t, &stubService{book: book})
	w := doRequest(t, h, http.MethodGet, "/api/books/"+book.ID.String(), "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp bookResponse
	if msg := decodeData(t, w.Body.Bytes(), &resp); msg != "book retrieved successfully" {
		t.Fatalf("message = %q", msg)
	}
	if !resp.IsOnSale {
		t.Fatalf("expected book to be on sale")
	}
	if resp.SalePriceCents != 3200 {
		t.Fatalf("sale price = %d, want 3200", resp.SalePriceCents)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{bookErr: repository.ErrBookNotFound})
	w := doRequest(t, h, http.MethodGet, "/api/books/"+uuid.NewString(), "", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetBook_BadID(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/books/not-a-uuid", "", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateBook_RoleGating(t *testing.T) {
	book := &model.Book{ID: uuid.New(), Title: "New Book", PriceCents: 1000}
	svc := &stubService{book: book}
	h, auth := newTestHandler(t, svc)

	body := bookRequest{Title: "New Book", ISBN: "0306406152", PriceCents: 1000}

	t.Run("no token", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPost, "/api/books/", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("member forbidden", func(t *testing.T) {
		token, _ := tokenFor(t, auth, model.RoleMember)
		w := doRequest(t, h, http.MethodPost, "/api/books/", token, body)
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("admin allowed", func(t *testing.T) {
		token, _ := tokenFor(t, auth, model.RoleAdmin)
		w := doRequest(t, h, http.MethodPost, "/api/books/", token, body)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
		}
	})
}

func TestUpdateStock_StaffAllowed(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{})
	token, _ := tokenFor(t, auth, model.RoleStaff)

	w := doRequest(t, h, http.MethodPatch, "/api/books/"+uuid.NewString()+"/stock", token,
		updateStockRequest{StockQuantity: 5})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestAddCartItem(t *testing.T) {
	cart := &model.Cart{ID: uuid.New(), TotalAmountCents: 2000}

	tests := []struct {
		name       string
		svc        *stubService
		wantStatus int
	}{
		{name: "added", svc: &stubService{cart: cart}, wantStatus: http.StatusCreated},
		{name: "insufficient stock", svc: &stubService{cartErr: repository.ErrInsufficientStock}, wantStatus: http.StatusBadRequest},
		{name: "already in cart", svc: &stubService{cartErr: repository.ErrBookAlreadyInCart}, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, auth := newTestHandler(t, tt.svc)
			token, _ := tokenFor(t, auth, model.RoleMember)

			w := doRequest(t, h, http.MethodPost, "/api/cart/items", token,
				addCartItemRequest{BookID: uuid.New(), Quantity: 1})
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestPlaceOrderFromCart_EmptyCart(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{orderErr: repository.ErrEmptyCart})
	token, _ := tokenFor(t, auth, model.RoleMember)

	w := doRequest(t, h, http.MethodPost, "/api/orders/from-cart", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetOrder_ForeignOrderForbiddenForMember(t *testing.T) {
	order := &model.Order{ID: uuid.New(), UserID: uuid.New(), Status: model.OrderStatusPending}
	h, auth := newTestHandler(t, &stubService{order: order})
	token, _ := tokenFor(t, auth, model.RoleMember)

	w := doRequest(t, h, http.MethodGet, "/api/orders/"+order.ID.String(), token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestListOrders_MemberForbidden(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{})
	token, _ := tokenFor(t, auth, model.RoleMember)

	w := doRequest(t, h, http.MethodGet, "/api/orders/", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestCompleteOrder_InvalidTransition(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{orderErr: repository.ErrInvalidTransition})
	token, _ := tokenFor(t, auth, model.RoleStaff)

	w := doRequest(t, h, http.MethodPost, "/api/orders/claim/AB12CD34/complete?membershipId=10001", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCompleteOrder_MembershipIDRequired(t *testing.T) {
	svc := &stubService{order: &model.Order{ID: uuid.New()}}
	h, auth := newTestHandler(t, svc)
	token, _ := tokenFor(t, auth, model.RoleStaff)

	w := doRequest(t, h, http.MethodPost, "/api/orders/claim/AB12CD34/complete", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCompleteOrder_MembershipMismatch(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{orderErr: service.ErrMembershipMismatch})
	token, _ := tokenFor(t, auth, model.RoleStaff)

	w := doRequest(t, h, http.MethodPost, "/api/orders/claim/AB12CD34/complete?membershipId=99999", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Message != "failed to complete order" {
		t.Fatalf("message = %q", resp.Message)
	}
	if resp.Error != "invalid membership id" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestCompleteOrder_PassesMembershipID(t *testing.T) {
	svc := &stubService{order: &model.Order{ID: uuid.New(), Status: model.OrderStatusCompleted}}
	h, auth := newTestHandler(t, svc)
	token, _ := tokenFor(t, auth, model.RoleStaff)

	w := doRequest(t, h, http.MethodPost, "/api/orders/claim/AB12CD34/complete?membershipId=10001", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if svc.gotMembershipID != "10001" {
		t.Fatalf("membership id = %q, want %q", svc.gotMembershipID, "10001")
	}
}

func TestCreateReview_PurchaseRequired(t *testing.T) {
	h, auth := newTestHandler(t, &stubService{reviewErr: service.ErrPurchaseRequired})
	token, _ := tokenFor(t, auth, model.RoleMember)

	w := doRequest(t, h, http.MethodPost, "/api/reviews/", token,
		createReviewRequest{BookID: uuid.New(), Rating: 5})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListActiveAnnouncements_Public(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{
		announcements: []model.Announcement{{ID: uuid.New(), Title: "Summer sale", IsActive: true}},
	})

	w := doRequest(t, h, http.MethodGet, "/api/announcements/", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []announcementResponse
	decodeData(t, w.Body.Bytes(), &resp)
	if len(resp) != 1 || resp[0].Title != "Summer sale" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{})
	w := doRequest(t, h, http.MethodGet, "/api/unknown", "", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
