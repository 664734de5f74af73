package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

const bookColumns = `b.id, b.title, b.isbn, b.description, b.image_url, b.publication_date,
	 b.price_cents, b.stock_quantity, b.sold_count, b.language, b.format, b.genre,
	 b.is_available_in_library, b.discount_percentage, b.discount_start_date, b.discount_end_date,
	 b.slug, b.created_at, b.last_updated`

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Title, &b.ISBN, &b.Description, &b.ImageURL, &b.PublicationDate,
		&b.PriceCents, &b.StockQuantity, &b.SoldCount, &b.Language, &b.Format, &b.Genre,
		&b.IsAvailableInLibrary, &b.DiscountPercentage, &b.DiscountStartDate, &b.DiscountEndDate,
		&b.Slug, &b.CreatedAt, &b.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &b, nil
}

func collectBooks(rows pgx.Rows) ([]model.Book, error) {
	var books []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// attachBookRelations загружает авторов и издательства для набора книг
// двумя join-запросами вместо навигации по объектным ссылкам.
func (r *PostgresRepository) attachBookRelations(ctx context.Context, books []model.Book) error {
	if len(books) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(books))
	index := make(map[uuid.UUID]int, len(books))
	for i := range books {
		ids[i] = books[i].ID
		index[books[i].ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ba.book_id, a.id, a.name, a.email, a.created_at, a.last_updated
		 FROM book_authors ba
		 JOIN authors a ON a.id = ba.author_id
		 WHERE ba.book_id = ANY($1)
		 ORDER BY a.name`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select book authors: %w", err)
	}
	for rows.Next() {
		var bookID uuid.UUID
		var a model.Author
		if err := rows.Scan(&bookID, &a.ID, &a.Name, &a.Email, &a.CreatedAt, &a.LastUpdated); err != nil {
			rows.Close()
			return fmt.Errorf("scan book author: %w", err)
		}
		i := index[bookID]
		books[i].Authors = append(books[i].Authors, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("book authors rows: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT bp.book_id, p.id, p.name, p.email, p.created_at, p.last_updated
		 FROM book_publishers bp
		 JOIN publishers p ON p.id = bp.publisher_id
		 WHERE bp.book_id = ANY($1)
		 ORDER BY p.name`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select book publishers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bookID uuid.UUID
		var p model.Publisher
		if err := rows.Scan(&bookID, &p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.LastUpdated); err != nil {
			return fmt.Errorf("scan book publisher: %w", err)
		}
		i := index[bookID]
		books[i].Publishers = append(books[i].Publishers, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("book publishers rows: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getBookWhere(ctx context.Context, cond string, arg any) (*model.Book, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books b WHERE `+cond, arg)
	b, err := scanBook(row)
	if err != nil {
		return nil, err
	}
	books := []model.Book{*b}
	if err := r.attachBookRelations(ctx, books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

// GetBookByID возвращает книгу с авторами и издательствами.
func (r *PostgresRepository) GetBookByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return r.getBookWhere(ctx, `b.id = $1`, id)
}

// GetBookByISBN возвращает книгу по ISBN.
func (r *PostgresRepository) GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	return r.getBookWhere(ctx, `b.isbn = $1`, isbn)
}

// GetBookBySlug возвращает книгу по slug.
func (r *PostgresRepository) GetBookBySlug(ctx context.Context, slug string) (*model.Book, error) {
	return r.getBookWhere(ctx, `b.slug = $1`, slug)
}

// CreateBook сохраняет книгу вместе со связями авторов и издательств.
func (r *PostgresRepository) CreateBook(ctx context.Context, b *model.Book) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO books (id, title, isbn, description, image_url, publication_date, price_cents,
		                    stock_quantity, language, format, genre, is_available_in_library,
		                    discount_percentage, discount_start_date, discount_end_date, slug)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		b.ID, b.Title, b.ISBN, b.Description, b.ImageURL, b.PublicationDate, b.PriceCents,
		b.StockQuantity, string(b.Language), string(b.Format), string(b.Genre), b.IsAvailableInLibrary,
		b.DiscountPercentage, b.DiscountStartDate, b.DiscountEndDate, b.Slug,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "books_isbn_key"):
			return fmt.Errorf("%w: %s", ErrDuplicateISBN, b.ISBN)
		case isUniqueViolation(err, "books_title_key"), isUniqueViolation(err, "books_slug_key"):
			return fmt.Errorf("%w: %s", ErrDuplicateTitle, b.Title)
		}
		return fmt.Errorf("insert book: %w", err)
	}

	if err := replaceBookRelations(ctx, tx, b); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateBook обновляет поля книги и заменяет связи авторов и издательств.
func (r *PostgresRepository) UpdateBook(ctx context.Context, b *model.Book) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE books
		 SET title = $2, isbn = $3, description = $4, publication_date = $5, price_cents = $6,
		     stock_quantity = $7, language = $8, format = $9, genre = $10,
		     is_available_in_library = $11, slug = $12, last_updated = now()
		 WHERE id = $1`,
		b.ID, b.Title, b.ISBN, b.Description, b.PublicationDate, b.PriceCents,
		b.StockQuantity, string(b.Language), string(b.Format), string(b.Genre),
		b.IsAvailableInLibrary, b.Slug,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "books_isbn_key"):
			return fmt.Errorf("%w: %s", ErrDuplicateISBN, b.ISBN)
		case isUniqueViolation(err, "books_title_key"), isUniqueViolation(err, "books_slug_key"):
			return fmt.Errorf("%w: %s", ErrDuplicateTitle, b.Title)
		}
		return fmt.Errorf("update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM book_authors WHERE book_id = $1`, b.ID); err != nil {
		return fmt.Errorf("delete book authors: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM book_publishers WHERE book_id = $1`, b.ID); err != nil {
		return fmt.Errorf("delete book publishers: %w", err)
	}
	if err := replaceBookRelations(ctx, tx, b); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func replaceBookRelations(ctx context.Context, tx pgx.Tx, b *model.Book) error {
	for _, a := range b.Authors {
		if _, err := tx.Exec(ctx,
			`INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2)`, b.ID, a.ID); err != nil {
			return fmt.Errorf("insert book author: %w", err)
		}
	}
	for _, p := range b.Publishers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO book_publishers (book_id, publisher_id) VALUES ($1, $2)`, b.ID, p.ID); err != nil {
			return fmt.Errorf("insert book publisher: %w", err)
		}
	}
	return nil
}

// DeleteBook удаляет книгу. Возвращает URL обложки, чтобы вызывающая
// сторона могла удалить файл во внешнем хранилище.
func (r *PostgresRepository) DeleteBook(ctx context.Context, id uuid.UUID) (*string, error) {
	var imageURL *string
	err := r.pool.QueryRow(ctx,
		`DELETE FROM books WHERE id = $1 RETURNING image_url`, id,
	).Scan(&imageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("delete book: %w", err)
	}
	return imageURL, nil
}

// BookFilter описывает параметры фильтрации каталога.
type BookFilter struct {
	SearchTerm           string
	AuthorIDs            []uuid.UUID
	PublisherIDs         []uuid.UUID
	MinPriceCents        *int64
	MaxPriceCents        *int64
	Genres               []model.Genre
	Languages            []model.Language
	Formats              []model.BookFormat
	IsAvailableInLibrary *bool
	OnSale               *bool
	MinRating            *float64
	SortBy               string
	SortDescending       bool
}

// ListBooks возвращает книги каталога, удовлетворяющие фильтру.
// Пустой фильтр возвращает весь каталог.
func (r *PostgresRepository) ListBooks(ctx context.Context, f BookFilter) ([]model.Book, error) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.SearchTerm != "" {
		p := arg("%" + strings.ToLower(f.SearchTerm) + "%")
		conds = append(conds, `(LOWER(b.title) LIKE `+p+` OR LOWER(b.isbn) LIKE `+p+` OR LOWER(b.description) LIKE `+p+`
			 OR EXISTS (SELECT 1 FROM book_authors ba JOIN authors a ON a.id = ba.author_id
			            WHERE ba.book_id = b.id AND LOWER(a.name) LIKE `+p+`)
			 OR EXISTS (SELECT 1 FROM book_publishers bp JOIN publishers p ON p.id = bp.publisher_id
			            WHERE bp.book_id = b.id AND LOWER(p.name) LIKE `+p+`))`)
	}
	if len(f.AuthorIDs) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM book_authors ba WHERE ba.book_id = b.id AND ba.author_id = ANY(`+arg(f.AuthorIDs)+`))`)
	}
	if len(f.PublisherIDs) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM book_publishers bp WHERE bp.book_id = b.id AND bp.publisher_id = ANY(`+arg(f.PublisherIDs)+`))`)
	}
	if f.MinPriceCents != nil {
		conds = append(conds, `b.price_cents >= `+arg(*f.MinPriceCents))
	}
	if f.MaxPriceCents != nil {
		conds = append(conds, `b.price_cents <= `+arg(*f.MaxPriceCents))
	}
	if len(f.Genres) > 0 {
		conds = append(conds, `b.genre = ANY(`+arg(enumStrings(f.Genres))+`)`)
	}
	if len(f.Languages) > 0 {
		conds = append(conds, `b.language = ANY(`+arg(enumStrings(f.Languages))+`)`)
	}
	if len(f.Formats) > 0 {
		conds = append(conds, `b.format = ANY(`+arg(enumStrings(f.Formats))+`)`)
	}
	if f.IsAvailableInLibrary != nil {
		conds = append(conds, `b.is_available_in_library = `+arg(*f.IsAvailableInLibrary))
	}
	if f.OnSale != nil {
		onSale := `(b.discount_percentage > 0
			 AND (b.discount_start_date IS NULL OR b.discount_start_date <= now())
			 AND (b.discount_end_date IS NULL OR b.discount_end_date >= now()))`
		if *f.OnSale {
			conds = append(conds, onSale)
		} else {
			conds = append(conds, `NOT `+onSale)
		}
	}
	if f.MinRating != nil {
		conds = append(conds, `(SELECT COALESCE(AVG(rating), 0) FROM reviews rv WHERE rv.book_id = b.id) >= `+arg(*f.MinRating))
	}

	query := `SELECT ` + bookColumns + ` FROM books b`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY ` + bookOrderClause(f.SortBy, f.SortDescending)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	defer rows.Close()

	books, err := collectBooks(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachBookRelations(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

func enumStrings[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

func bookOrderClause(sortBy string, desc bool) string {
	col := "b.created_at"
	switch strings.ToLower(sortBy) {
	case "title":
		col = "b.title"
	case "price":
		col = "b.price_cents"
	case "publicationdate":
		col = "b.publication_date"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

func (r *PostgresRepository) listBooksWhere(ctx context.Context, cond, order string, args ...any) ([]model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE ` + cond + ` ORDER BY ` + order
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	defer rows.Close()

	books, err := collectBooks(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachBookRelations(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// GetBestSellers возвращает книги с наибольшим числом продаж.
func (r *PostgresRepository) GetBestSellers(ctx context.Context, limit int) ([]model.Book, error) {
	return r.listBooksWhere(ctx, `b.sold_count > 0`, fmt.Sprintf(`b.sold_count DESC LIMIT %d`, limit))
}

// GetNewReleases возвращает книги, изданные за последние три месяца.
func (r *PostgresRepository) GetNewReleases(ctx context.Context) ([]model.Book, error) {
	return r.listBooksWhere(ctx,
		`b.publication_date >= $1 AND b.publication_date <= now()`,
		`b.publication_date DESC`,
		time.Now().AddDate(0, -3, 0))
}

// GetNewArrivals возвращает книги, добавленные в каталог за последний месяц.
func (r *PostgresRepository) GetNewArrivals(ctx context.Context) ([]model.Book, error) {
	return r.listBooksWhere(ctx, `b.created_at >= $1`, `b.created_at DESC`, time.Now().AddDate(0, -1, 0))
}

// GetComingSoon возвращает книги с датой публикации в будущем.
func (r *PostgresRepository) GetComingSoon(ctx context.Context) ([]model.Book, error) {
	return r.listBooksWhere(ctx, `b.publication_date > now()`, `b.publication_date ASC`)
}

// GetDeals возвращает книги с действующей скидкой.
func (r *PostgresRepository) GetDeals(ctx context.Context) ([]model.Book, error) {
	return r.listBooksWhere(ctx,
		`b.discount_percentage > 0
		 AND (b.discount_start_date IS NULL OR b.discount_start_date <= now())
		 AND (b.discount_end_date IS NULL OR b.discount_end_date >= now())`,
		`b.discount_percentage DESC`)
}

// UpdateStock устанавливает остаток книги на складе.
func (r *PostgresRepository) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE books SET stock_quantity = $2, last_updated = now() WHERE id = $1`,
		id, quantity,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

// SetDiscount устанавливает скидку книги и окно её действия.
// Нулевой процент с пустыми границами снимает скидку.
func (r *PostgresRepository) SetDiscount(ctx context.Context, id uuid.UUID, percentage *float64, start, end *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE books
		 SET discount_percentage = $2, discount_start_date = $3, discount_end_date = $4, last_updated = now()
		 WHERE id = $1`,
		id, percentage, start, end,
	)
	if err != nil {
		return fmt.Errorf("set discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

// UpdateBookImage сохраняет URL обложки и возвращает прежний URL.
func (r *PostgresRepository) UpdateBookImage(ctx context.Context, id uuid.UUID, imageURL string) (*string, error) {
	var previous *string
	err := r.pool.QueryRow(ctx,
		`UPDATE books b SET image_url = $2, last_updated = now()
		 FROM (SELECT image_url FROM books WHERE id = $1) prev
		 WHERE b.id = $1
		 RETURNING prev.image_url`,
		id, imageURL,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("update book image: %w", err)
	}
	return previous, nil
}

// GetAverageRating возвращает среднюю оценку книги; 0 при отсутствии отзывов.
func (r *PostgresRepository) GetAverageRating(ctx context.Context, bookID uuid.UUID) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE book_id = $1`, bookID,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, nil
}

// GetBooksByAuthor возвращает книги автора.
func (r *PostgresRepository) GetBooksByAuthor(ctx context.Context, authorID uuid.UUID) ([]model.Book, error) {
	return r.listBooksWhere(ctx,
		`EXISTS (SELECT 1 FROM book_authors ba WHERE ba.book_id = b.id AND ba.author_id = $1)`,
		`b.title ASC`, authorID)
}

// GetBooksByPublisher возвращает книги издательства.
func (r *PostgresRepository) GetBooksByPublisher(ctx context.Context, publisherID uuid.UUID) ([]model.Book, error) {
	return r.listBooksWhere(ctx,
		`EXISTS (SELECT 1 FROM book_publishers bp WHERE bp.book_id = b.id AND bp.publisher_id = $1)`,
		`b.title ASC`, publisherID)
}
