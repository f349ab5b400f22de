package note

import (
	"context"
	"fmt"
	"time"

	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/pkg/id"
)

const (
	fieldTitle  = "title"
	fieldBody   = "body"
	fieldPinned = "pinned"
)

type Service interface {
	Create(ctx context.Context, projectID, authorID string, input domain.NoteInput) (*domain.Note, error)
	Get(ctx context.Context, noteID, requesterID string, isAdmin bool) (*domain.Note, error)
	ListByProject(ctx context.Context, projectID, requesterID string, isAdmin bool) ([]domain.Note, error)
	Update(ctx context.Context, noteID, requesterID string, isAdmin bool, req domain.UpdateNoteRequest) (*domain.Note, error)
	Delete(ctx context.Context, noteID, requesterID string, isAdmin bool) error
}

type noteStore interface {
	Put(ctx context.Context, n *domain.Note) error
	Get(ctx context.Context, noteID string) (*domain.Note, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Note, error)
	Update(ctx context.Context, noteID string, updates map[string]interface{}) error
	Delete(ctx context.Context, noteID string) error
}

type projectStore interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
}

type service struct {
	repo        noteStore
	projectRepo projectStore
}

type ServiceDeps struct {
	NoteRepo    noteStore
	ProjectRepo projectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.NoteRepo, projectRepo: deps.ProjectRepo}
}

func (s *service) Create(ctx context.Context, projectID, authorID string, input domain.NoteInput) (*domain.Note, error) {
	if err := s.checkProject(ctx, projectID, authorID, false); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	n := &domain.Note{
		NoteID:    id.New(),
		ProjectID: projectID,
		AuthorID:  authorID,
		Title:     input.Title,
		Body:      input.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *service) Get(ctx context.Context, noteID, requesterID string, isAdmin bool) (*domain.Note, error) {
	n, err := s.repo.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.AuthorID != requesterID && !isAdmin {
		if err := s.checkProject(ctx, n.ProjectID, requesterID, isAdmin); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (s *service) ListByProject(ctx context.Context, projectID, requesterID string, isAdmin bool) ([]domain.Note, error) {
	if err := s.checkProject(ctx, projectID, requesterID, isAdmin); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

func (s *service) Update(ctx context.Context, noteID, requesterID string, isAdmin bool, req domain.UpdateNoteRequest) (*domain.Note, error) {
	n, err := s.Get(ctx, noteID, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Body != nil {
		updates[fieldBody] = *req.Body
	}
	if req.Pinned != nil {
		updates[fieldPinned] = *req.Pinned
	}
	if len(updates) == 0 {
		return n, nil
	}
	if err := s.repo.Update(ctx, noteID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, noteID)
}

func (s *service) Delete(ctx context.Context, noteID, requesterID string, isAdmin bool) error {
	if _, err := s.Get(ctx, noteID, requesterID, isAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, noteID)
}

func (s *service) checkProject(ctx context.Context, projectID, requesterID string, isAdmin bool) error {
	p, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OwnerID != requesterID && !isAdmin {
		return fmt.Errorf("not the project owner: %w", domain.ErrForbidden)
	}
	return nil
}
