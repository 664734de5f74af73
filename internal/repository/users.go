package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

// ErrMembershipIDTaken возвращается при коллизии членского номера;
// вызывающая сторона генерирует новый номер и повторяет вставку.
var ErrMembershipIDTaken = errors.New("membership id already taken")

const userColumns = `id, email, username, password_hash, membership_id, role, is_active,
	 is_discount_available, password_reset_code, password_reset_expiry, created_at, last_updated`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.MembershipID, &u.Role,
		&u.IsActive, &u.IsDiscountAvailable, &u.PasswordResetCode, &u.PasswordResetExpiry,
		&u.CreatedAt, &u.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, username, password_hash, membership_id, role, is_active, is_discount_available)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Username, u.PasswordHash, u.MembershipID, string(u.Role), u.IsActive, u.IsDiscountAvailable,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_email_key"):
			return fmt.Errorf("%w: %s", ErrEmailTaken, u.Email)
		case isUniqueViolation(err, "users_username_key"):
			return fmt.Errorf("%w: %s", ErrUsernameTaken, u.Username)
		case isUniqueViolation(err, "users_membership_id_key"):
			return ErrMembershipIDTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByEmail возвращает пользователя по адресу почты без учёта регистра.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser обновляет почту и имя пользователя.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET email = $2, username = $3, last_updated = now() WHERE id = $1`,
		u.ID, u.Email, u.Username,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_email_key"):
			return fmt.Errorf("%w: %s", ErrEmailTaken, u.Email)
		case isUniqueViolation(err, "users_username_key"):
			return fmt.Errorf("%w: %s", ErrUsernameTaken, u.Username)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword заменяет хеш пароля пользователя.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, last_updated = now() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetUserActive включает или выключает учётную запись. Возвращает false,
// если пользователь уже находится в требуемом состоянии.
func (r *PostgresRepository) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, last_updated = now() WHERE id = $1 AND is_active <> $2`,
		id, active,
	)
	if err != nil {
		return false, fmt.Errorf("set user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// либо нет пользователя, либо состояние уже требуемое
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, fmt.Errorf("check user exists: %w", err)
		}
		if !exists {
			return false, ErrUserNotFound
		}
		return false, nil
	}
	return true, nil
}

// SetUserRole назначает пользователю роль.
func (r *PostgresRepository) SetUserRole(ctx context.Context, id uuid.UUID, role model.UserRole) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, last_updated = now() WHERE id = $1`,
		id, string(role),
	)
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser удаляет пользователя вместе с корзиной, закладками и отзывами.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPasswordReset сохраняет код сброса пароля и срок его действия.
// Прежний код при этом затирается: активным может быть только один код.
func (r *PostgresRepository) SetPasswordReset(ctx context.Context, id uuid.UUID, code string, expiry time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_reset_code = $2, password_reset_expiry = $3, last_updated = now() WHERE id = $1`,
		id, code, expiry,
	)
	if err != nil {
		return fmt.Errorf("set password reset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPassword устанавливает новый хеш пароля и снимает код сброса.
func (r *PostgresRepository) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET password_hash = $2, password_reset_code = NULL, password_reset_expiry = NULL, last_updated = now()
		 WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ToggleBookmark добавляет книгу в закладки пользователя либо убирает её.
// Возвращает true, если книга оказалась в закладках.
func (r *PostgresRepository) ToggleBookmark(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO bookmarks (user_id, book_id) VALUES ($1, $2) ON CONFLICT (user_id, book_id) DO NOTHING`,
		userID, bookID,
	)
	if err != nil {
		return false, fmt.Errorf("insert bookmark: %w", err)
	}

	bookmarked := tag.RowsAffected() == 1
	if !bookmarked {
		if _, err := tx.Exec(ctx,
			`DELETE FROM bookmarks WHERE user_id = $1 AND book_id = $2`, userID, bookID); err != nil {
			return false, fmt.Errorf("delete bookmark: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return bookmarked, nil
}

// IsBookmarked сообщает, находится ли книга в закладках пользователя.
func (r *PostgresRepository) IsBookmarked(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var bookmarked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND book_id = $2)`,
		userID, bookID,
	).Scan(&bookmarked)
	if err != nil {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	return bookmarked, nil
}

// GetBookmarks возвращает книги из закладок пользователя.
func (r *PostgresRepository) GetBookmarks(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookColumns+`
		 FROM books b
		 JOIN bookmarks bm ON bm.book_id = b.id
		 WHERE bm.user_id = $1
		 ORDER BY bm.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select bookmarks: %w", err)
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
