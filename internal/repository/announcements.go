package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

const announcementColumns = `id, title, content, start_date, end_date, type, is_active, created_at, last_updated`

func scanAnnouncement(row pgx.Row) (*model.Announcement, error) {
	var a model.Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.StartDate, &a.EndDate, &a.Type,
		&a.IsActive, &a.CreatedAt, &a.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("scan announcement: %w", err)
	}
	return &a, nil
}

// CreateAnnouncement сохраняет новое объявление.
func (r *PostgresRepository) CreateAnnouncement(ctx context.Context, a *model.Announcement) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO announcements (id, title, content, start_date, end_date, type, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Title, a.Content, a.StartDate, a.EndDate, string(a.Type), a.IsActive,
	)
	if err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// GetAnnouncementByID возвращает объявление по идентификатору.
func (r *PostgresRepository) GetAnnouncementByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id)
	return scanAnnouncement(row)
}

func (r *PostgresRepository) listAnnouncements(ctx context.Context, cond string) ([]model.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements`
	if cond != "" {
		query += ` WHERE ` + cond
	}
	query += ` ORDER BY start_date DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select announcements: %w", err)
	}
	defer rows.Close()

	var announcements []model.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, *a)
	}
	return announcements, rows.Err()
}

// ListAnnouncements возвращает все объявления.
func (r *PostgresRepository) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	return r.listAnnouncements(ctx, "")
}

// ListActiveAnnouncements возвращает действующие объявления:
// включённые с окном действия, охватывающим текущий момент.
func (r *PostgresRepository) ListActiveAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	return r.listAnnouncements(ctx, `is_active AND start_date <= now() AND end_date >= now()`)
}

// UpdateAnnouncement обновляет поля объявления.
func (r *PostgresRepository) UpdateAnnouncement(ctx context.Context, a *model.Announcement) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE announcements
		 SET title = $2, content = $3, start_date = $4, end_date = $5, type = $6, last_updated = now()
		 WHERE id = $1`,
		a.ID, a.Title, a.Content, a.StartDate, a.EndDate, string(a.Type),
	)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

// DeleteAnnouncement удаляет объявление.
func (r *PostgresRepository) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

// ToggleAnnouncement переключает признак активности объявления.
// Возвращает новое значение признака.
func (r *PostgresRepository) ToggleAnnouncement(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		`UPDATE announcements SET is_active = NOT is_active, last_updated = now()
		 WHERE id = $1 RETURNING is_active`,
		id,
	).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrAnnouncementNotFound
		}
		return false, fmt.Errorf("toggle announcement: %w", err)
	}
	return active, nil
}
