package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmeshcher/bookstore-system/internal/model"
)

// CreateAuthor добавляет автора.
func (s *Service) CreateAuthor(ctx context.Context, name string, email *string) (*model.Author, error) {
	if name == "" {
		return nil, validationErr("author name is required")
	}

	a := &model.Author{ID: uuid.New(), Name: name, Email: email}
	if err := s.repo.CreateAuthor(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetAuthor возвращает автора по идентификатору.
func (s *Service) GetAuthor(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	return s.repo.GetAuthorByID(ctx, id)
}

// ListAuthors возвращает всех авторов.
func (s *Service) ListAuthors(ctx context.Context) ([]model.Author, error) {
	return s.repo.ListAuthors(ctx)
}

// UpdateAuthor обновляет данные автора.
func (s *Service) UpdateAuthor(ctx context.Context, id uuid.UUID, name string, email *string) (*model.Author, error) {
	if name == "" {
		return nil, validationErr("author name is required")
	}

	a, err := s.repo.GetAuthorByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.Name = name
	a.Email = email
	if err := s.repo.UpdateAuthor(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAuthor удаляет автора.
func (s *Service) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAuthor(ctx, id)
}

// CreatePublisher добавляет издательство.
func (s *Service) CreatePublisher(ctx context.Context, name string, email *string) (*model.Publisher, error) {
	if name == "" {
		return nil, validationErr("publisher name is required")
	}

	p := &model.Publisher{ID: uuid.New(), Name: name, Email: email}
	if err := s.repo.CreatePublisher(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPublisher возвращает издательство по идентификатору.
func (s *Service) GetPublisher(ctx context.Context, id uuid.UUID) (*model.Publisher, error) {
	return s.repo.GetPublisherByID(ctx, id)
}

// ListPublishers возвращает все издательства.
func (s *Service) ListPublishers(ctx context.Context) ([]model.Publisher, error) {
	return s.repo.ListPublishers(ctx)
}

// UpdatePublisher обновляет данные издательства.
func (s *Service) UpdatePublisher(ctx context.Context, id uuid.UUID, name string, email *string) (*model.Publisher, error) {
	if name == "" {
		return nil, validationErr("publisher name is required")
	}

	p, err := s.repo.GetPublisherByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = name
	p.Email = email
	if err := s.repo.UpdatePublisher(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePublisher удаляет издательство.
func (s *Service) DeletePublisher(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePublisher(ctx, id)
}
