// Package handler содержит HTTP-обработчики API книжного магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/bookstore-system/internal/middleware"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/pricing"
	"github.com/mmeshcher/bookstore-system/internal/repository"
	"github.com/mmeshcher/bookstore-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Register(ctx context.Context, email, username, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, email, username string) (*model.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	SetUserRole(ctx context.Context, id uuid.UUID, role model.UserRole) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ToggleBookmark(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	IsBookmarked(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	GetBookmarks(ctx context.Context, userID uuid.UUID) ([]model.Book, error)

	CreateBook(ctx context.Context, in service.BookInput) (*model.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, in service.BookInput) (*model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
	GetBookBySlug(ctx context.Context, slug string) (*model.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error)
	ListBooks(ctx context.Context, f repository.BookFilter) ([]model.Book, error)
	GetBestSellers(ctx context.Context, limit int) ([]model.Book, error)
	GetNewReleases(ctx context.Context) ([]model.Book, error)
	GetNewArrivals(ctx context.Context) ([]model.Book, error)
	GetComingSoon(ctx context.Context) ([]model.Book, error)
	GetDeals(ctx context.Context) ([]model.Book, error)
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error
	SetDiscount(ctx context.Context, id uuid.UUID, percentage *float64, start, end *time.Time) error
	UploadBookImage(ctx context.Context, id uuid.UUID, filename string, file io.Reader) (string, error)
	GetAverageRating(ctx context.Context, bookID uuid.UUID) (float64, error)
	GetBooksByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Book, error)
	GetBooksByPublisher(ctx context.Context, publisherID uuid.UUID) ([]model.Book, error)

	CreateAuthor(ctx context.Context, name string, email *string) (*model.Author, error)
	GetAuthor(ctx context.Context, id uuid.UUID) (*model.Author, error)
	ListAuthors(ctx context.Context) ([]model.Author, error)
	UpdateAuthor(ctx context.Context, id uuid.UUID, name string, email *string) (*model.Author, error)
	DeleteAuthor(ctx context.Context, id uuid.UUID) error
	CreatePublisher(ctx context.Context, name string, email *string) (*model.Publisher, error)
	GetPublisher(ctx context.Context, id uuid.UUID) (*model.Publisher, error)
	ListPublishers(ctx context.Context) ([]model.Publisher, error)
	UpdatePublisher(ctx context.Context, id uuid.UUID, name string, email *string) (*model.Publisher, error)
	DeletePublisher(ctx context.Context, id uuid.UUID) error

	GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	GetCartSummary(ctx context.Context, userID uuid.UUID) (*service.CartSummary, error)
	AddToCart(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*model.Cart, error)
	UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.Cart, error)
	RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (*model.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error

	PlaceOrder(ctx context.Context, userID uuid.UUID, lines []repository.OrderLine) (*model.Order, error)
	PlaceOrderFromCart(ctx context.Context, userID uuid.UUID) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetOrderByClaimCode(ctx context.Context, claimCode string) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	MarkOrderReady(ctx context.Context, id uuid.UUID) (*model.Order, error)
	CompleteOrder(ctx context.Context, claimCode, membershipID string) (*model.Order, error)
	CancelOrder(ctx context.Context, requesterID uuid.UUID, requesterRole model.UserRole, id uuid.UUID) (*model.Order, error)

	CreateReview(ctx context.Context, userID, bookID uuid.UUID, rating int, comment *string) (*model.Review, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
	GetReviewsByBook(ctx context.Context, bookID uuid.UUID) ([]model.Review, error)
	GetReviewsByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error)
	UpdateReview(ctx context.Context, requesterID uuid.UUID, requesterRole model.UserRole, id uuid.UUID, rating int, comment *string) (*model.Review, error)
	DeleteReview(ctx context.Context, requesterID uuid.UUID, requesterRole model.UserRole, id uuid.UUID) error

	CreateAnnouncement(ctx context.Context, a *model.Announcement) (*model.Announcement, error)
	GetAnnouncement(ctx context.Context, id uuid.UUID) (*model.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]model.Announcement, error)
	ListActiveAnnouncements(ctx context.Context) ([]model.Announcement, error)
	UpdateAnnouncement(ctx context.Context, a *model.Announcement) (*model.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id uuid.UUID) error
	ToggleAnnouncement(ctx context.Context, id uuid.UUID) (bool, error)
}

// Handler реализует HTTP-обработчики API книжного магазина.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

// Успешные ответы и ошибки всегда приходят в конвертах
// {message, data} и {message, error}.
type apiResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) writeData(w http.ResponseWriter, status int, message string, data any) {
	h.writeJSON(w, status, apiResponse{Message: message, Data: data})
}

// respondError переводит ошибки бизнес-логики и репозитория в HTTP-статусы.
func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	resp := errorResponse{Message: "failed to " + msg, Error: err.Error()}
	switch {
	case errors.Is(err, service.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountDisabled):
		h.writeJSON(w, http.StatusUnauthorized, resp)
	case errors.Is(err, service.ErrForbidden):
		h.writeJSON(w, http.StatusForbidden, resp)
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrBookNotFound),
		errors.Is(err, repository.ErrAuthorNotFound),
		errors.Is(err, repository.ErrPublisherNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrCartItemNotFound),
		errors.Is(err, repository.ErrReviewNotFound),
		errors.Is(err, repository.ErrAnnouncementNotFound):
		h.writeJSON(w, http.StatusNotFound, resp)
	case errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, repository.ErrUsernameTaken),
		errors.Is(err, repository.ErrDuplicateISBN),
		errors.Is(err, repository.ErrDuplicateTitle),
		errors.Is(err, repository.ErrAuthorExists),
		errors.Is(err, repository.ErrPublisherExists),
		errors.Is(err, repository.ErrBookAlreadyInCart),
		errors.Is(err, repository.ErrAlreadyReviewed):
		h.writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrEmptyCart),
		errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, service.ErrPurchaseRequired),
		errors.Is(err, service.ErrResetCodeInvalid),
		errors.Is(err, service.ErrMembershipMismatch):
		h.writeJSON(w, http.StatusBadRequest, resp)
	default:
		h.logger.Error(msg, zap.Error(err))
		resp.Error = http.StatusText(http.StatusInternalServerError)
		h.writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*middleware.AuthUser, bool) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: http.StatusText(http.StatusUnauthorized)})
	}
	return user, ok
}

type bookResponse struct {
	ID                   uuid.UUID           `json:"id"`
	Title                string              `json:"title"`
	ISBN                 string              `json:"isbn"`
	Description          string              `json:"description,omitempty"`
	ImageURL             *string             `json:"imageUrl,omitempty"`
	PublicationDate      time.Time           `json:"publicationDate"`
	PriceCents           int64               `json:"priceCents"`
	SalePriceCents       int64               `json:"salePriceCents"`
	IsOnSale             bool                `json:"isOnSale"`
	DiscountPercentage   *float64            `json:"discountPercentage,omitempty"`
	DiscountStartDate    *time.Time          `json:"discountStartDate,omitempty"`
	DiscountEndDate      *time.Time          `json:"discountEndDate,omitempty"`
	StockQuantity        int                 `json:"stockQuantity"`
	SoldCount            int                 `json:"soldCount"`
	Language             model.Language      `json:"language"`
	Format               model.BookFormat    `json:"format"`
	Genre                model.Genre         `json:"genre"`
	IsAvailableInLibrary bool                `json:"isAvailableInLibrary"`
	Slug                 string              `json:"slug"`
	Authors              []authorResponse    `json:"authors"`
	Publishers           []publisherResponse `json:"publishers"`
	CreatedAt            time.Time           `json:"createdAt"`
}

type authorResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email *string   `json:"email,omitempty"`
}

type publisherResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email *string   `json:"email,omitempty"`
}

// newBookResponse строит ответ по книге; признак действующей скидки
// и цена со скидкой вычисляются на момент запроса.
func newBookResponse(b *model.Book) bookResponse {
	now := time.Now()

	resp := bookResponse{
		ID:                   b.ID,
		Title:                b.Title,
		ISBN:                 b.ISBN,
		Description:          b.Description,
		ImageURL:             b.ImageURL,
		PublicationDate:      b.PublicationDate,
		PriceCents:           b.PriceCents,
		SalePriceCents:       pricing.UnitPriceCents(b, now),
		IsOnSale:             pricing.DiscountActive(b, now),
		DiscountPercentage:   b.DiscountPercentage,
		DiscountStartDate:    b.DiscountStartDate,
		DiscountEndDate:      b.DiscountEndDate,
		StockQuantity:        b.StockQuantity,
		SoldCount:            b.SoldCount,
		Language:             b.Language,
		Format:               b.Format,
		Genre:                b.Genre,
		IsAvailableInLibrary: b.IsAvailableInLibrary,
		Slug:                 b.Slug,
		Authors:              make([]authorResponse, 0, len(b.Authors)),
		Publishers:           make([]publisherResponse, 0, len(b.Publishers)),
		CreatedAt:            b.CreatedAt,
	}
	for _, a := range b.Authors {
		resp.Authors = append(resp.Authors, authorResponse{ID: a.ID, Name: a.Name, Email: a.Email})
	}
	for _, p := range b.Publishers {
		resp.Publishers = append(resp.Publishers, publisherResponse{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	return resp
}

func newBookListResponse(books []model.Book) []bookResponse {
	resp := make([]bookResponse, 0, len(books))
	for i := range books {
		resp = append(resp, newBookResponse(&books[i]))
	}
	return resp
}

type userResponse struct {
	ID                  uuid.UUID      `json:"id"`
	Email               string         `json:"email"`
	Username            string         `json:"username"`
	MembershipID        string         `json:"membershipId"`
	Role                model.UserRole `json:"role"`
	IsActive            bool           `json:"isActive"`
	IsDiscountAvailable bool           `json:"isDiscountAvailable"`
	CreatedAt           time.Time      `json:"createdAt"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:                  u.ID,
		Email:               u.Email,
		Username:            u.Username,
		MembershipID:        u.MembershipID,
		Role:                u.Role,
		IsActive:            u.IsActive,
		IsDiscountAvailable: u.IsDiscountAvailable,
		CreatedAt:           u.CreatedAt,
	}
}

type cartItemResponse struct {
	ID             uuid.UUID `json:"id"`
	BookID         uuid.UUID `json:"bookId"`
	BookTitle      string    `json:"bookTitle"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	SubtotalCents  int64     `json:"subtotalCents"`
}

type cartResponse struct {
	ID               uuid.UUID          `json:"id"`
	TotalAmountCents int64              `json:"totalAmountCents"`
	Items            []cartItemResponse `json:"items"`
}

func newCartResponse(c *model.Cart) cartResponse {
	resp := cartResponse{
		ID:               c.ID,
		TotalAmountCents: c.TotalAmountCents,
		Items:            make([]cartItemResponse, 0, len(c.Items)),
	}
	for _, it := range c.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ID:             it.ID,
			BookID:         it.BookID,
			BookTitle:      it.BookTitle,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			SubtotalCents:  it.SubtotalCents,
		})
	}
	return resp
}

type orderItemResponse struct {
	ID                  uuid.UUID `json:"id"`
	BookID              uuid.UUID `json:"bookId"`
	BookTitle           string    `json:"bookTitle"`
	Quantity            int       `json:"quantity"`
	PriceAtTimeCents    int64     `json:"priceAtTimeCents"`
	DiscountAtTimeCents int64     `json:"discountAtTimeCents"`
}

type orderResponse struct {
	ID                  uuid.UUID           `json:"id"`
	UserID              uuid.UUID           `json:"userId"`
	UserEmail           string              `json:"userEmail"`
	UserMembershipID    string              `json:"userMembershipId"`
	ClaimCode           string              `json:"claimCode"`
	Status              model.OrderStatus   `json:"status"`
	SubTotalCents       int64               `json:"subTotalCents"`
	DiscountAmountCents int64               `json:"discountAmountCents"`
	FinalTotalCents     int64               `json:"finalTotalCents"`
	IsCancelled         bool                `json:"isCancelled"`
	CancellationDate    *time.Time          `json:"cancellationDate,omitempty"`
	OrderDate           time.Time           `json:"orderDate"`
	Items               []orderItemResponse `json:"items"`
}

func newOrderResponse(o *model.Order) orderResponse {
	resp := orderResponse{
		ID:                  o.ID,
		UserID:              o.UserID,
		UserEmail:           o.UserEmail,
		UserMembershipID:    o.UserMembershipID,
		ClaimCode:           o.ClaimCode,
		Status:              o.Status,
		SubTotalCents:       o.SubTotalCents,
		DiscountAmountCents: o.DiscountAmountCents,
		FinalTotalCents:     o.FinalTotalCents,
		IsCancelled:         o.IsCancelled,
		CancellationDate:    o.CancellationDate,
		OrderDate:           o.OrderDate,
		Items:               make([]orderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:                  it.ID,
			BookID:              it.BookID,
			BookTitle:           it.BookTitle,
			Quantity:            it.Quantity,
			PriceAtTimeCents:    it.PriceAtTimeCents,
			DiscountAtTimeCents: it.DiscountAtTimeCents,
		})
	}
	return resp
}

func newOrderListResponse(orders []model.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResponse(&orders[i]))
	}
	return resp
}

type reviewResponse struct {
	ID        uuid.UUID `json:"id"`
	BookID    uuid.UUID `json:"bookId"`
	BookTitle string    `json:"bookTitle"`
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newReviewResponse(rv *model.Review) reviewResponse {
	return reviewResponse{
		ID:        rv.ID,
		BookID:    rv.BookID,
		BookTitle: rv.BookTitle,
		UserID:    rv.UserID,
		Username:  rv.Username,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
}

func newReviewListResponse(reviews []model.Review) []reviewResponse {
	resp := make([]reviewResponse, 0, len(reviews))
	for i := range reviews {
		resp = append(resp, newReviewResponse(&reviews[i]))
	}
	return resp
}

type announcementResponse struct {
	ID        uuid.UUID              `json:"id"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	StartDate time.Time              `json:"startDate"`
	EndDate   time.Time              `json:"endDate"`
	Type      model.AnnouncementType `json:"type"`
	IsActive  bool                   `json:"isActive"`
	CreatedAt time.Time              `json:"createdAt"`
}

func newAnnouncementResponse(a *model.Announcement) announcementResponse {
	return announcementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		StartDate: a.StartDate,
		EndDate:   a.EndDate,
		Type:      a.Type,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}

func newAnnouncementListResponse(items []model.Announcement) []announcementResponse {
	resp := make([]announcementResponse, 0, len(items))
	for i := range items {
		resp = append(resp, newAnnouncementResponse(&items[i]))
	}
	return resp
}
