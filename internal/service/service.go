// Package service реализует бизнес-логику книжного магазина.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/bookstore-system/internal/email"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	SetUserRole(ctx context.Context, id uuid.UUID, role model.UserRole) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	SetPasswordReset(ctx context.Context, id uuid.UUID, code string, expiry time.Time) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ToggleBookmark(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	IsBookmarked(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	GetBookmarks(ctx context.Context, userID uuid.UUID) ([]model.Book, error)

	CreateBook(ctx context.Context, b *model.Book) error
	GetBookByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error)
	GetBookBySlug(ctx context.Context, slug string) (*model.Book, error)
	UpdateBook(ctx context.Context, b *model.Book) error
	DeleteBook(ctx context.Context, id uuid.UUID) (*string, error)
	ListBooks(ctx context.Context, f repository.BookFilter) ([]model.Book, error)
	GetBestSellers(ctx context.Context, limit int) ([]model.Book, error)
	GetNewReleases(ctx context.Context) ([]model.Book, error)
	GetNewArrivals(ctx context.Context) ([]model.Book, error)
	GetComingSoon(ctx context.Context) ([]model.Book, error)
	GetDeals(ctx context.Context) ([]model.Book, error)
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error
	SetDiscount(ctx context.Context, id uuid.UUID, percentage *float64, start, end *time.Time) error
	UpdateBookImage(ctx context.Context, id uuid.UUID, imageURL string) (*string, error)
	GetAverageRating(ctx context.Context, bookID uuid.UUID) (float64, error)
	GetBooksByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Book, error)
	GetBooksByPublisher(ctx context.Context, publisherID uuid.UUID) ([]model.Book, error)

	CreateAuthor(ctx context.Context, a *model.Author) error
	GetAuthorByID(ctx context.Context, id uuid.UUID) (*model.Author, error)
	GetAuthorsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Author, error)
	ListAuthors(ctx context.Context) ([]model.Author, error)
	UpdateAuthor(ctx context.Context, a *model.Author) error
	DeleteAuthor(ctx context.Context, id uuid.UUID) error
	CreatePublisher(ctx context.Context, p *model.Publisher) error
	GetPublisherByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error)
	GetPublishersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Publisher, error)
	ListPublishers(ctx context.Context) ([]model.Publisher, error)
	UpdatePublisher(ctx context.Context, p *model.Publisher) error
	DeletePublisher(ctx context.Context, id uuid.UUID) error

	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddCartItem(ctx context.Context, userID, bookID uuid.UUID, quantity int, unitPriceCents int64) error
	UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int, unitPriceCents int64) error
	GetCartItemBookID(ctx context.Context, userID, itemID uuid.UUID) (uuid.UUID, error)
	RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error

	PlaceOrder(ctx context.Context, userID uuid.UUID, lines []repository.OrderLine, now time.Time) (*model.Order, error)
	PlaceOrderFromCart(ctx context.Context, userID uuid.UUID) (*model.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetOrderByClaimCode(ctx context.Context, claimCode string) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	AdvanceOrderStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error
	CancelOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	HasCompletedOrderWithBook(ctx context.Context, userID, bookID uuid.UUID) (bool, error)

	CreateReview(ctx context.Context, rv *model.Review) error
	GetReviewByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
	GetReviewsByBook(ctx context.Context, bookID uuid.UUID) ([]model.Review, error)
	GetReviewsByUser(ctx context.Context, userID uuid.UUID) ([]model.Review, error)
	UpdateReview(ctx context.Context, id uuid.UUID, rating int, comment *string) error
	DeleteReview(ctx context.Context, id uuid.UUID) error

	CreateAnnouncement(ctx context.Context, a *model.Announcement) error
	GetAnnouncementByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]model.Announcement, error)
	ListActiveAnnouncements(ctx context.Context) ([]model.Announcement, error)
	UpdateAnnouncement(ctx context.Context, a *model.Announcement) error
	DeleteAnnouncement(ctx context.Context, id uuid.UUID) error
	ToggleAnnouncement(ctx context.Context, id uuid.UUID) (bool, error)
}

// Notifier описывает контракт отправки писем покупателям.
type Notifier interface {
	SendOrderConfirmation(to string, o email.OrderSummary) error
	SendOrderReadyForPickup(to string, o email.OrderSummary) error
	SendOrderCompleted(to string, o email.OrderSummary) error
	SendOrderCancellation(to string, o email.OrderSummary) error
	SendPasswordReset(to, code string) error
}

// ImageStore описывает контракт внешнего хранилища обложек.
type ImageStore interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

// Ошибки бизнес-логики.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrForbidden          = errors.New("operation not allowed")
	ErrPurchaseRequired   = errors.New("only purchased books can be reviewed")
	ErrResetCodeInvalid   = errors.New("reset code is invalid or expired")
	ErrMembershipMismatch = errors.New("invalid membership id")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Service содержит бизнес-логику книжного магазина.
type Service struct {
	repo     Repository
	notifier Notifier
	images   ImageStore
	logger   *zap.Logger
}

// NewService создаёт сервис с указанными зависимостями.
func NewService(repo Repository, notifier Notifier, images ImageStore, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		images:   images,
		logger:   logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}
