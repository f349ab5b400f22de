package project

import (
	"context"
	"fmt"
	"time"

	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/pkg/id"
)

const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldArchived    = "archived"
)

type Service interface {
	Create(ctx context.Context, ownerID string, input domain.ProjectInput) (*domain.Project, error)
	Get(ctx context.Context, projectID, requesterID string, isAdmin bool) (*domain.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
	Update(ctx context.Context, projectID, requesterID string, isAdmin bool, req domain.UpdateProjectRequest) (*domain.Project, error)
	Delete(ctx context.Context, projectID, requesterID string, isAdmin bool) error
}

type projectStore interface {
	Put(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
	Update(ctx context.Context, projectID string, updates map[string]interface{}) error
	Delete(ctx context.Context, projectID string) error
}

type service struct {
	repo projectStore
}

type ServiceDeps struct {
	ProjectRepo projectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.ProjectRepo}
}

func (s *service) Create(ctx context.Context, ownerID string, input domain.ProjectInput) (*domain.Project, error) {
	now := time.Now().UTC()
	p := &domain.Project{
		ProjectID:   id.New(),
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, projectID, requesterID string, isAdmin bool) (*domain.Project, error) {
	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != requesterID && !isAdmin {
		return nil, fmt.Errorf("not the project owner: %w", domain.ErrForbidden)
	}
	return p, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *service) Update(ctx context.Context, projectID, requesterID string, isAdmin bool, req domain.UpdateProjectRequest) (*domain.Project, error) {
	if _, err := s.Get(ctx, projectID, requesterID, isAdmin); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[fieldName] = *req.Name
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.Archived != nil {
		updates[fieldArchived] = *req.Archived
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, projectID)
	}
	if err := s.repo.Update(ctx, projectID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, projectID)
}

func (s *service) Delete(ctx context.Context, projectID, requesterID string, isAdmin bool) error {
	if _, err := s.Get(ctx, projectID, requesterID, isAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, projectID)
}
