// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ошибки отсутствия сущностей.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrBookNotFound         = errors.New("book not found")
	ErrAuthorNotFound       = errors.New("author not found")
	ErrPublisherNotFound    = errors.New("publisher not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrReviewNotFound       = errors.New("review not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")
)

// Ошибки нарушения уникальности и бизнес-ограничений, проверяемых хранилищем.
var (
	ErrEmailTaken        = errors.New("email already registered")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrDuplicateISBN     = errors.New("book with this ISBN already exists")
	ErrDuplicateTitle    = errors.New("book with this title already exists")
	ErrAuthorExists      = errors.New("author with this name already exists")
	ErrPublisherExists   = errors.New("publisher with this name already exists")
	ErrBookAlreadyInCart = errors.New("book is already in cart")
	ErrAlreadyReviewed   = errors.New("user has already reviewed this book")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// isUniqueViolation сообщает, вызвана ли ошибка нарушением указанного
// уникального ограничения; пустое имя означает любое ограничение.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
