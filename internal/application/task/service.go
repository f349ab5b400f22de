package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/pkg/id"
)

const (
	fieldTitle      = "title"
	fieldBody       = "body"
	fieldStatus     = "status"
	fieldAssigneeID = "assignee_id"
	fieldDueAt      = "due_at"
)

type Service interface {
	Create(ctx context.Context, projectID, creatorID string, input domain.TaskInput) (*domain.Task, error)
	Get(ctx context.Context, taskID, requesterID string, isAdmin bool) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID, requesterID string, isAdmin bool) ([]domain.Task, error)
	ListByAssignee(ctx context.Context, assigneeID string) ([]domain.Task, error)
	Update(ctx context.Context, taskID, requesterID string, isAdmin bool, req domain.UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, taskID, requesterID string, isAdmin bool) error
}

type taskStore interface {
	Put(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	ListByAssignee(ctx context.Context, assigneeID string) ([]domain.Task, error)
	Update(ctx context.Context, taskID string, updates map[string]interface{}) error
	Delete(ctx context.Context, taskID string) error
}

type projectStore interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

type publisher interface {
	Publish(ctx context.Context, subject, message string) error
}

type service struct {
	repo          taskStore
	projectRepo   projectStore
	notifications notificationStore
	events        publisher
}

type ServiceDeps struct {
	TaskRepo         taskStore
	ProjectRepo      projectStore
	NotificationRepo notificationStore
	// Events may be nil when no topic is configured.
	Events publisher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:          deps.TaskRepo,
		projectRepo:   deps.ProjectRepo,
		notifications: deps.NotificationRepo,
		events:        deps.Events,
	}
}

func (s *service) Create(ctx context.Context, projectID, creatorID string, input domain.TaskInput) (*domain.Task, error) {
	p, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Archived {
		return nil, fmt.Errorf("project is archived: %w", domain.ErrBadRequest)
	}
	dueAt, err := parseDueAt(input.DueAt)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &domain.Task{
		TaskID:     id.New(),
		ProjectID:  projectID,
		CreatorID:  creatorID,
		AssigneeID: input.AssigneeID,
		Title:      input.Title,
		Body:       input.Body,
		Status:     domain.TaskStatusOpen,
		DueAt:      dueAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	if t.AssigneeID != nil && *t.AssigneeID != creatorID {
		s.notifyAssignment(ctx, t)
	}
	return t, nil
}

func (s *service) Get(ctx context.Context, taskID, requesterID string, isAdmin bool) (*domain.Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, t, requesterID, isAdmin); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) ListByProject(ctx context.Context, projectID, requesterID string, isAdmin bool) ([]domain.Task, error) {
	p, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != requesterID && !isAdmin {
		return nil, fmt.Errorf("not the project owner: %w", domain.ErrForbidden)
	}
	return s.repo.ListByProject(ctx, projectID)
}

func (s *service) ListByAssignee(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	return s.repo.ListByAssignee(ctx, assigneeID)
}

func (s *service) Update(ctx context.Context, taskID, requesterID string, isAdmin bool, req domain.UpdateTaskRequest) (*domain.Task, error) {
	t, err := s.Get(ctx, taskID, requesterID, isAdmin)
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
	if req.Status != nil {
		switch *req.Status {
		case domain.TaskStatusOpen, domain.TaskStatusInProgress, domain.TaskStatusDone:
			updates[fieldStatus] = *req.Status
		default:
			return nil, fmt.Errorf("invalid status: %w", domain.ErrBadRequest)
		}
	}
	reassigned := false
	if req.AssigneeID != nil {
		if t.AssigneeID == nil || *t.AssigneeID != *req.AssigneeID {
			reassigned = *req.AssigneeID != requesterID
		}
		updates[fieldAssigneeID] = *req.AssigneeID
	}
	if req.DueAt != nil {
		dueAt, err := parseDueAt(req.DueAt)
		if err != nil {
			return nil, err
		}
		updates[fieldDueAt] = dueAt
	}
	if len(updates) == 0 {
		return t, nil
	}
	if err := s.repo.Update(ctx, taskID, updates); err != nil {
		return nil, err
	}
	t, err = s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if reassigned && t.AssigneeID != nil {
		s.notifyAssignment(ctx, t)
	}
	return t, nil
}

func (s *service) Delete(ctx context.Context, taskID, requesterID string, isAdmin bool) error {
	if _, err := s.Get(ctx, taskID, requesterID, isAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, taskID)
}

// authorize admits the project owner, the task creator, and the assignee.
func (s *service) authorize(ctx context.Context, t *domain.Task, requesterID string, isAdmin bool) error {
	if isAdmin || t.CreatorID == requesterID {
		return nil
	}
	if t.AssigneeID != nil && *t.AssigneeID == requesterID {
		return nil
	}
	p, err := s.projectRepo.Get(ctx, t.ProjectID)
	if err != nil {
		return err
	}
	if p.OwnerID != requesterID {
		return fmt.Errorf("no access to this task: %w", domain.ErrForbidden)
	}
	return nil
}

// notifyAssignment records an in-app notification for the assignee and
// publishes an event. Both are best-effort; the task write already succeeded.
func (s *service) notifyAssignment(ctx context.Context, t *domain.Task) {
	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         *t.AssigneeID,
		TaskID:         &t.TaskID,
		Message:        fmt.Sprintf("You were assigned to task %q", t.Title),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.notifications.Put(ctx, n); err != nil {
		slog.Warn("failed to store assignment notification", "task_id", t.TaskID, "err", err)
	}
	if s.events != nil {
		msg := fmt.Sprintf("task %s assigned to user %s", t.TaskID, *t.AssigneeID)
		if err := s.events.Publish(ctx, "task.assigned", msg); err != nil {
			slog.Warn("failed to publish assignment event", "task_id", t.TaskID, "err", err)
		}
	}
}

func parseDueAt(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("due_at must be RFC 3339: %w", domain.ErrBadRequest)
	}
	utc := t.UTC()
	return &utc, nil
}
