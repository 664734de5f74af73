package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

func validateAnnouncement(a *model.Announcement) error {
	if a.Title == "" {
		return validationErr("title is required")
	}
	if a.Content == "" {
		return validationErr("content is required")
	}
	if !a.Type.Valid() {
		return validationErr("unknown announcement type: %s", a.Type)
	}
	if !a.EndDate.After(a.StartDate) {
		return validationErr("end date must be after start date")
	}
	return nil
}

// CreateAnnouncement создаёт объявление.
func (s *Service) CreateAnnouncement(ctx context.Context, a *model.Announcement) (*model.Announcement, error) {
	if err := validateAnnouncement(a); err != nil {
		return nil, err
	}
	if a.StartDate.Before(time.Now()) {
		return nil, validationErr("start date must not be in the past")
	}

	a.ID = uuid.New()
	a.IsActive = true
	if err := s.repo.CreateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetAnnouncement возвращает объявление по идентификатору.
func (s *Service) GetAnnouncement(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	return s.repo.GetAnnouncementByID(ctx, id)
}

// ListAnnouncements возвращает все объявления.
func (s *Service) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	return s.repo.ListAnnouncements(ctx)
}

// ListActiveAnnouncements возвращает действующие объявления для витрины.
func (s *Service) ListActiveAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	return s.repo.ListActiveAnnouncements(ctx)
}

// UpdateAnnouncement обновляет объявление.
func (s *Service) UpdateAnnouncement(ctx context.Context, a *model.Announcement) (*model.Announcement, error) {
	if err := validateAnnouncement(a); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetAnnouncementByID(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	existing.Title = a.Title
	existing.Content = a.Content
	existing.StartDate = a.StartDate
	existing.EndDate = a.EndDate
	existing.Type = a.Type
	if err := s.repo.UpdateAnnouncement(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteAnnouncement удаляет объявление.
func (s *Service) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAnnouncement(ctx, id)
}

// ToggleAnnouncement переключает видимость объявления. Возвращает новое
// состояние.
func (s *Service) ToggleAnnouncement(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.ToggleAnnouncement(ctx, id)
}
