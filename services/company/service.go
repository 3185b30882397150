package company

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/taskbot/core/logger"
)

// Service applies business rules on top of a Repository.
type Service struct {
	repo Repository
}

// NewService wraps a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new company. Names must be unique
// case-insensitively.
func (s *Service) Create(ctx context.Context, name, description string, createdBy int64) (*Company, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	if !ValidateName(name) {
		return nil, fmt.Errorf("company: invalid name %q", name)
	}
	if !ValidateDescription(description) {
		return nil, fmt.Errorf("company: description too long")
	}

	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateName
	}

	created, err := s.repo.Insert(ctx, Company{
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		Active:      true,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "service.companies", "company.created",
		slog.Int64("company_id", created.ID),
		slog.Int64("user_id", createdBy),
	)
	return created, nil
}

// GetByID fetches one company; ErrNotFound when missing.
func (s *Service) GetByID(ctx context.Context, id int64) (*Company, error) {
	return s.repo.GetByID(ctx, id)
}

// ListActive returns all active companies in listing order.
func (s *Service) ListActive(ctx context.Context) ([]Company, error) {
	return s.repo.ListActive(ctx)
}

// Deactivate hides a company from listings without deleting its record.
func (s *Service) Deactivate(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return false, err
	}
	if ok {
		logger.Info(ctx, "service.companies", "company.deactivated",
			slog.Int64("company_id", id),
		)
	}
	return ok, nil
}
