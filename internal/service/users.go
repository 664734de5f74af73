package service

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/bookstore-system/internal/codes"
	"github.com/mmeshcher/bookstore-system/internal/model"
	"github.com/mmeshcher/bookstore-system/internal/repository"
)

const (
	bcryptCost         = 12
	minPasswordLength  = 8
	minUsernameLength  = 3
	passwordResetTTL   = 15 * time.Minute
	membershipAttempts = 5
)

func validateEmail(address string) error {
	if _, err := mail.ParseAddress(address); err != nil {
		return validationErr("invalid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return validationErr("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// Register регистрирует нового покупателя с ролью Member и выдаёт ему
// номер членской карты.
func (s *Service) Register(ctx context.Context, emailAddr, username, password string) (*model.User, error) {
	if err := validateEmail(emailAddr); err != nil {
		return nil, err
	}
	if len(username) < minUsernameLength {
		return nil, validationErr("username must be at least %d characters", minUsernameLength)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.New(),
		Email:        emailAddr,
		Username:     username,
		PasswordHash: string(hash),
		Role:         model.RoleMember,
		IsActive:     true,
	}

	// Номер членской карты уникален; при коллизии генерируется новый.
	for attempt := 0; attempt < membershipAttempts; attempt++ {
		u.MembershipID = codes.MembershipID()
		err = s.repo.CreateUser(ctx, u)
		if !errors.Is(err, repository.ErrMembershipIDTaken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate проверяет учётные данные пользователя.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// GetUserByEmail возвращает пользователя по адресу почты.
func (s *Service) GetUserByEmail(ctx context.Context, emailAddr string) (*model.User, error) {
	return s.repo.GetUserByEmail(ctx, emailAddr)
}

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateProfile меняет email и имя пользователя.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, emailAddr, username string) (*model.User, error) {
	if err := validateEmail(emailAddr); err != nil {
		return nil, err
	}
	if len(username) < minUsernameLength {
		return nil, validationErr("username must be at least %d characters", minUsernameLength)
	}

	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Email = emailAddr
	u.Username = username
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// SetUserActive включает или отключает учётную запись. Возвращает false,
// если состояние не изменилось.
func (s *Service) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	return s.repo.SetUserActive(ctx, id, active)
}

// SetUserRole назначает пользователю роль.
func (s *Service) SetUserRole(ctx context.Context, id uuid.UUID, role model.UserRole) error {
	if !role.Valid() {
		return validationErr("unknown role: %s", role)
	}
	return s.repo.SetUserRole(ctx, id, role)
}

// DeleteUser удаляет учётную запись.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteUser(ctx, id)
}

// RequestPasswordReset отправляет код восстановления пароля на почту.
// Для неизвестного адреса запрос тихо игнорируется, чтобы не раскрывать
// наличие учётной записи.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	u, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	code := codes.ResetCode()
	if err := s.repo.SetPasswordReset(ctx, u.ID, code, time.Now().Add(passwordResetTTL)); err != nil {
		return err
	}
	return s.notifier.SendPasswordReset(u.Email, code)
}

// ResetPassword устанавливает новый пароль по коду восстановления.
func (s *Service) ResetPassword(ctx context.Context, emailAddr, code, newPassword string) error {
	u, err := s.repo.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrResetCodeInvalid
		}
		return err
	}

	if u.PasswordResetCode == nil || u.PasswordResetExpiry == nil {
		return ErrResetCodeInvalid
	}
	if *u.PasswordResetCode != code || time.Now().After(*u.PasswordResetExpiry) {
		return ErrResetCodeInvalid
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.ResetPassword(ctx, u.ID, string(hash))
}

// ToggleBookmark добавляет книгу в закладки пользователя или убирает её.
// Возвращает true, если книга теперь в закладках.
func (s *Service) ToggleBookmark(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	if _, err := s.repo.GetBookByID(ctx, bookID); err != nil {
		return false, err
	}

	bookmarked, err := s.repo.ToggleBookmark(ctx, userID, bookID)
	if err != nil {
		return false, err
	}
	s.logger.Debug("bookmark toggled",
		zap.String("user_id", userID.String()),
		zap.String("book_id", bookID.String()),
		zap.Bool("bookmarked", bookmarked),
	)
	return bookmarked, nil
}

// IsBookmarked сообщает, находится ли книга в закладках пользователя.
func (s *Service) IsBookmarked(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	return s.repo.IsBookmarked(ctx, userID, bookID)
}

// GetBookmarks возвращает книги в закладках пользователя.
func (s *Service) GetBookmarks(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	return s.repo.GetBookmarks(ctx, userID)
}
