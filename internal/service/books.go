package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
	"github.com/mmeshcher/bookstore-system/internal/validation"
)

const defaultBestSellersLimit = 10

// BookInput — данные для создания или обновления книги.
type BookInput struct {
	Title                string
	ISBN                 string
	Description          string
	PublicationDate      time.Time
	PriceCents           int64
	StockQuantity        int
	Language             model.Language
	Format               model.BookFormat
	Genre                model.Genre
	IsAvailableInLibrary bool
	AuthorIDs            []uuid.UUID
	PublisherIDs         []uuid.UUID
}

func (s *Service) validateBookInput(ctx context.Context, in BookInput) ([]model.Author, []model.Publisher, error) {
	if in.Title == "" {
		return nil, nil, validationErr("title is required")
	}
	if !validation.IsValidISBN(in.ISBN) {
		return nil, nil, validationErr("invalid ISBN: %s", in.ISBN)
	}
	if in.PriceCents <= 0 {
		return nil, nil, validationErr("price must be positive")
	}
	if in.StockQuantity < 0 {
		return nil, nil, validationErr("stock quantity must not be negative")
	}
	if !in.Language.Valid() {
		return nil, nil, validationErr("unknown language: %s", in.Language)
	}
	if !in.Format.Valid() {
		return nil, nil, validationErr("unknown format: %s", in.Format)
	}
	if !in.Genre.Valid() {
		return nil, nil, validationErr("unknown genre: %s", in.Genre)
	}
	if len(in.AuthorIDs) == 0 {
		return nil, nil, validationErr("at least one author is required")
	}

	authors, err := s.repo.GetAuthorsByIDs(ctx, in.AuthorIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(authors) != len(in.AuthorIDs) {
		return nil, nil, repository.ErrAuthorNotFound
	}

	var publishers []model.Publisher
	if len(in.PublisherIDs) > 0 {
		publishers, err = s.repo.GetPublishersByIDs(ctx, in.PublisherIDs)
		if err != nil {
			return nil, nil, err
		}
		if len(publishers) != len(in.PublisherIDs) {
			return nil, nil, repository.ErrPublisherNotFound
		}
	}
	return authors, publishers, nil
}

// CreateBook добавляет книгу в каталог.
func (s *Service) CreateBook(ctx context.Context, in BookInput) (*model.Book, error) {
	authors, publishers, err := s.validateBookInput(ctx, in)
	if err != nil {
		return nil, err
	}

	b := &model.Book{
		ID:                   uuid.New(),
		Title:                in.Title,
		ISBN:                 in.ISBN,
		Description:          in.Description,
		PublicationDate:      in.PublicationDate,
		PriceCents:           in.PriceCents,
		StockQuantity:        in.StockQuantity,
		Language:             in.Language,
		Format:               in.Format,
		Genre:                in.Genre,
		IsAvailableInLibrary: in.IsAvailableInLibrary,
		Slug:                 validation.Slugify(in.Title),
		Authors:              authors,
		Publishers:           publishers,
	}

	if err := s.repo.CreateBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBook обновляет данные книги. Слаг пересчитывается из нового названия.
func (s *Service) UpdateBook(ctx context.Context, id uuid.UUID, in BookInput) (*model.Book, error) {
	authors, publishers, err := s.validateBookInput(ctx, in)
	if err != nil {
		return nil, err
	}

	b, err := s.repo.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	b.Title = in.Title
	b.ISBN = in.ISBN
	b.Description = in.Description
	b.PublicationDate = in.PublicationDate
	b.PriceCents = in.PriceCents
	b.StockQuantity = in.StockQuantity
	b.Language = in.Language
	b.Format = in.Format
	b.Genre = in.Genre
	b.IsAvailableInLibrary = in.IsAvailableInLibrary
	b.Slug = validation.Slugify(in.Title)
	b.Authors = authors
	b.Publishers = publishers

	if err := s.repo.UpdateBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBook удаляет книгу из каталога вместе с её обложкой в хранилище.
// Недоступность хранилища не отменяет удаление книги.
func (s *Service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	imageURL, err := s.repo.DeleteBook(ctx, id)
	if err != nil {
		return err
	}

	if imageURL != nil {
		if err := s.images.Delete(ctx, *imageURL); err != nil {
			s.logger.Warn("delete book image failed",
				zap.String("book_id", id.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// GetBook возвращает книгу по идентификатору.
func (s *Service) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return s.repo.GetBookByID(ctx, id)
}

// GetBookBySlug возвращает книгу по слагу.
func (s *Service) GetBookBySlug(ctx context.Context, slug string) (*model.Book, error) {
	return s.repo.GetBookBySlug(ctx, slug)
}

// GetBookByISBN возвращает книгу по ISBN.
func (s *Service) GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	return s.repo.GetBookByISBN(ctx, isbn)
}

// ListBooks возвращает книги каталога по фильтру.
func (s *Service) ListBooks(ctx context.Context, f repository.BookFilter) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, f)
}

// GetBestSellers возвращает самые продаваемые книги.
func (s *Service) GetBestSellers(ctx context.Context, limit int) ([]model.Book, error) {
	if limit <= 0 {
		limit = defaultBestSellersLimit
	}
	return s.repo.GetBestSellers(ctx, limit)
}

// GetNewReleases возвращает книги, изданные за последние три месяца.
func (s *Service) GetNewReleases(ctx context.Context) ([]model.Book, error) {
	return s.repo.GetNewReleases(ctx)
}

// GetNewArrivals возвращает книги, добавленные в каталог за последний месяц.
func (s *Service) GetNewArrivals(ctx context.Context) ([]model.Book, error) {
	return s.repo.GetNewArrivals(ctx)
}

// GetComingSoon возвращает книги с датой издания в будущем.
func (s *Service) GetComingSoon(ctx context.Context) ([]model.Book, error) {
	return s.repo.GetComingSoon(ctx)
}

// GetDeals возвращает книги с действующей скидкой.
func (s *Service) GetDeals(ctx context.Context) ([]model.Book, error) {
	return s.repo.GetDeals(ctx)
}

// UpdateStock выставляет остаток книги на складе.
func (s *Service) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity < 0 {
		return validationErr("stock quantity must not be negative")
	}
	return s.repo.UpdateStock(ctx, id, quantity)
}

// SetDiscount назначает книге скидку с окном действия. Передача nil
// процентной ставки снимает скидку.
func (s *Service) SetDiscount(ctx context.Context, id uuid.UUID, percentage *float64, start, end *time.Time) error {
	if percentage != nil {
		if *percentage <= 0 || *percentage > 100 {
			return validationErr("discount percentage must be in (0, 100]")
		}
		if start != nil && end != nil && !end.After(*start) {
			return validationErr("discount end date must be after start date")
		}
	}
	return s.repo.SetDiscount(ctx, id, percentage, start, end)
}

// UploadBookImage загружает обложку книги во внешнее хранилище и привязывает
// её к книге. Предыдущая обложка удаляется из хранилища.
func (s *Service) UploadBookImage(ctx context.Context, id uuid.UUID, filename string, file io.Reader) (string, error) {
	if _, err := s.repo.GetBookByID(ctx, id); err != nil {
		return "", err
	}

	imageURL, err := s.images.Upload(ctx, filename, file)
	if err != nil {
		return "", err
	}

	prev, err := s.repo.UpdateBookImage(ctx, id, imageURL)
	if err != nil {
		return "", err
	}

	if prev != nil && *prev != imageURL {
		if err := s.images.Delete(ctx, *prev); err != nil {
			s.logger.Warn("delete previous book image failed",
				zap.String("book_id", id.String()),
				zap.Error(err),
			)
		}
	}
	return imageURL, nil
}

// GetAverageRating возвращает среднюю оценку книги по отзывам.
func (s *Service) GetAverageRating(ctx context.Context, bookID uuid.UUID) (float64, error) {
	return s.repo.GetAverageRating(ctx, bookID)
}

// GetBooksByAuthor возвращает книги автора.
func (s *Service) GetBooksByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Book, error) {
	if _, err := s.repo.GetAuthorByID(ctx, authorID); err != nil {
		return nil, err
	}
	return s.repo.GetBooksByAuthor(ctx, authorID)
}

// GetBooksByPublisher возвращает книги издательства.
func (s *Service) GetBooksByPublisher(ctx context.Context, publisherID uuid.UUID) ([]model.Book, error) {
	if _, err := s.repo.GetPublisherByID(ctx, publisherID); err != nil {
		return nil, err
	}
	return s.repo.GetBooksByPublisher(ctx, publisherID)
}
