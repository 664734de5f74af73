// Package model содержит доменные сущности книжного магазина.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRole описывает роль пользователя в системе.
type UserRole string

const (
	RoleMember UserRole = "Member"
	RoleAdmin  UserRole = "Admin"
	RoleStaff  UserRole = "Staff"
)

// Valid сообщает, является ли значение допустимой ролью.
func (r UserRole) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID                  uuid.UUID
	Email               string
	Username            string
	PasswordHash        string
	MembershipID        string
	Role                UserRole
	IsActive            bool
	IsDiscountAvailable bool
	PasswordResetCode   *string
	PasswordResetExpiry *time.Time
	CreatedAt           time.Time
	LastUpdated         *time.Time
}

// BookFormat описывает формат издания книги.
type BookFormat string

const (
	FormatPaperback BookFormat = "Paperback"
	FormatHardcover BookFormat = "Hardcover"
	FormatExclusive BookFormat = "Exclusive"
)

// Valid сообщает, является ли значение допустимым форматом.
func (f BookFormat) Valid() bool {
	switch f {
	case FormatPaperback, FormatHardcover, FormatExclusive:
		return true
	}
	return false
}

// Genre описывает жанр книги.
type Genre string

const (
	GenreAction  Genre = "Action"
	GenreComedy  Genre = "Comedy"
	GenreDrama   Genre = "Drama"
	GenreHorror  Genre = "Horror"
	GenreSciFi   Genre = "SciFi"
	GenreRomance Genre = "Romance"
)

// Valid сообщает, является ли значение допустимым жанром.
func (g Genre) Valid() bool {
	switch g {
	case GenreAction, GenreComedy, GenreDrama, GenreHorror, GenreSciFi, GenreRomance:
		return true
	}
	return false
}

// Language описывает язык издания.
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageNepali  Language = "Nepali"
	LanguageHindi   Language = "Hindi"
	LanguageSpanish Language = "Spanish"
)

// Valid сообщает, является ли значение допустимым языком.
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageNepali, LanguageHindi, LanguageSpanish:
		return true
	}
	return false
}

// Book представляет книгу каталога. Денежные суммы хранятся в центах.
type Book struct {
	ID                   uuid.UUID
	Title                string
	ISBN                 string
	Description          string
	ImageURL             *string
	PublicationDate      time.Time
	PriceCents           int64
	StockQuantity        int
	SoldCount            int
	Language             Language
	Format               BookFormat
	Genre                Genre
	IsAvailableInLibrary bool
	DiscountPercentage   *float64
	DiscountStartDate    *time.Time
	DiscountEndDate      *time.Time
	Slug                 string
	Authors              []Author
	Publishers           []Publisher
	CreatedAt            time.Time
	LastUpdated          *time.Time
}

// Author представляет автора книг.
type Author struct {
	ID          uuid.UUID
	Name        string
	Email       *string
	CreatedAt   time.Time
	LastUpdated *time.Time
}

// Publisher представляет издательство.
type Publisher struct {
	ID          uuid.UUID
	Name        string
	Email       *string
	CreatedAt   time.Time
	LastUpdated *time.Time
}

// Cart представляет корзину пользователя. Одна корзина на пользователя,
// TotalAmountCents пересчитывается из позиций после каждой мутации.
type Cart struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	TotalAmountCents int64
	Items            []CartItem
	CreatedAt        time.Time
	LastUpdated      *time.Time
}

// CartItem представляет позицию корзины. UnitPriceCents — снимок цены
// со скидкой на момент добавления.
type CartItem struct {
	ID             uuid.UUID
	CartID         uuid.UUID
	BookID         uuid.UUID
	BookTitle      string
	Quantity       int
	UnitPriceCents int64
	SubtotalCents  int64
	CreatedAt      time.Time
	LastUpdated    *time.Time
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusReadyForPickup OrderStatus = "ReadyForPickup"
	OrderStatusCompleted      OrderStatus = "Completed"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// Order представляет оформленный заказ с неизменяемыми суммами.
type Order struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	UserEmail           string
	UserMembershipID    string
	ClaimCode           string
	Status              OrderStatus
	SubTotalCents       int64
	DiscountAmountCents int64
	FinalTotalCents     int64
	IsCancelled         bool
	CancellationDate    *time.Time
	OrderDate           time.Time
	Items               []OrderItem
	LastUpdated         *time.Time
}

// OrderItem представляет позицию заказа со снимком цены на момент покупки.
type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	BookID              uuid.UUID
	BookTitle           string
	Quantity            int
	PriceAtTimeCents    int64
	DiscountAtTimeCents int64
	CreatedAt           time.Time
}

// Review представляет отзыв пользователя о купленной книге.
type Review struct {
	ID          uuid.UUID
	BookID      uuid.UUID
	BookTitle   string
	UserID      uuid.UUID
	Username    string
	Rating      int
	Comment     *string
	CreatedAt   time.Time
	LastUpdated *time.Time
}

// AnnouncementType описывает тип объявления.
type AnnouncementType string

const (
	AnnouncementDeal        AnnouncementType = "Deal"
	AnnouncementNewArrival  AnnouncementType = "NewArrival"
	AnnouncementInformation AnnouncementType = "Information"
)

// Valid сообщает, является ли значение допустимым типом объявления.
func (t AnnouncementType) Valid() bool {
	switch t {
	case AnnouncementDeal, AnnouncementNewArrival, AnnouncementInformation:
		return true
	}
	return false
}

// Announcement представляет объявление магазина с окном действия.
type Announcement struct {
	ID          uuid.UUID
	Title       string
	Content     string
	StartDate   time.Time
	EndDate     time.Time
	Type        AnnouncementType
	IsActive    bool
	CreatedAt   time.Time
	LastUpdated *time.Time
}
