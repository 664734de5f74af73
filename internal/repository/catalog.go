package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

// CreateAuthor сохраняет нового автора.
func (r *PostgresRepository) CreateAuthor(ctx context.Context, a *model.Author) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO authors (id, name, email) VALUES ($1, $2, $3)`,
		a.ID, a.Name, a.Email,
	)
	if err != nil {
		if isUniqueViolation(err, "authors_name_key") {
			return fmt.Errorf("%w: %s", ErrAuthorExists, a.Name)
		}
		return fmt.Errorf("create author: %w", err)
	}
	return nil
}

// GetAuthorByID возвращает автора по идентификатору.
func (r *PostgresRepository) GetAuthorByID(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	var a model.Author
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at, last_updated FROM authors WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt, &a.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("get author: %w", err)
	}
	return &a, nil
}

// GetAuthorsByIDs возвращает авторов с указанными идентификаторами.
func (r *PostgresRepository) GetAuthorsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Author, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, created_at, last_updated FROM authors WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select authors: %w", err)
	}
	defer rows.Close()

	var authors []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt, &a.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// ListAuthors возвращает всех авторов по алфавиту.
func (r *PostgresRepository) ListAuthors(ctx context.Context) ([]model.Author, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, created_at, last_updated FROM authors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select authors: %w", err)
	}
	defer rows.Close()

	var authors []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt, &a.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// UpdateAuthor обновляет имя и почту автора.
func (r *PostgresRepository) UpdateAuthor(ctx context.Context, a *model.Author) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE authors SET name = $2, email = $3, last_updated = now() WHERE id = $1`,
		a.ID, a.Name, a.Email,
	)
	if err != nil {
		if isUniqueViolation(err, "authors_name_key") {
			return fmt.Errorf("%w: %s", ErrAuthorExists, a.Name)
		}
		return fmt.Errorf("update author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

// DeleteAuthor удаляет автора.
func (r *PostgresRepository) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

// CreatePublisher сохраняет новое издательство.
func (r *PostgresRepository) CreatePublisher(ctx context.Context, p *model.Publisher) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO publishers (id, name, email) VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.Email,
	)
	if err != nil {
		if isUniqueViolation(err, "publishers_name_key") {
			return fmt.Errorf("%w: %s", ErrPublisherExists, p.Name)
		}
		return fmt.Errorf("create publisher: %w", err)
	}
	return nil
}

// GetPublisherByID возвращает издательство по идентификатору.
func (r *PostgresRepository) GetPublisherByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error) {
	var p model.Publisher
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at, last_updated FROM publishers WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPublisherNotFound
		}
		return nil, fmt.Errorf("get publisher: %w", err)
	}
	return &p, nil
}

// GetPublishersByIDs возвращает издательства с указанными идентификаторами.
func (r *PostgresRepository) GetPublishersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Publisher, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, created_at, last_updated FROM publishers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select publishers: %w", err)
	}
	defer rows.Close()

	var publishers []model.Publisher
	for rows.Next() {
		var p model.Publisher
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan publisher: %w", err)
		}
		publishers = append(publishers, p)
	}
	return publishers, rows.Err()
}

// ListPublishers возвращает все издательства по алфавиту.
func (r *PostgresRepository) ListPublishers(ctx context.Context) ([]model.Publisher, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, created_at, last_updated FROM publishers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select publishers: %w", err)
	}
	defer rows.Close()

	var publishers []model.Publisher
	for rows.Next() {
		var p model.Publisher
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan publisher: %w", err)
		}
		publishers = append(publishers, p)
	}
	return publishers, rows.Err()
}

// UpdatePublisher обновляет имя и почту издательства.
func (r *PostgresRepository) UpdatePublisher(ctx context.Context, p *model.Publisher) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE publishers SET name = $2, email = $3, last_updated = now() WHERE id = $1`,
		p.ID, p.Name, p.Email,
	)
	if err != nil {
		if isUniqueViolation(err, "publishers_name_key") {
			return fmt.Errorf("%w: %s", ErrPublisherExists, p.Name)
		}
		return fmt.Errorf("update publisher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPublisherNotFound
	}
	return nil
}

// DeletePublisher удаляет издательство.
func (r *PostgresRepository) DeletePublisher(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM publishers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete publisher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPublisherNotFound
	}
	return nil
}
