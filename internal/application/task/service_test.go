package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hivedesk/api/internal/domain"
)

// --- mocks ---

type mockTaskStore struct{ mock.Mock }

func (m *mockTaskStore) Put(ctx context.Context, t *domain.Task) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTaskStore) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	args := m.Called(ctx, taskID)
	if t, _ := args.Get(0).(*domain.Task); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTaskStore) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]domain.Task), args.Error(1)
}
func (m *mockTaskStore) ListByAssignee(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	args := m.Called(ctx, assigneeID)
	return args.Get(0).([]domain.Task), args.Error(1)
}
func (m *mockTaskStore) Update(ctx context.Context, taskID string, updates map[string]interface{}) error {
	return m.Called(ctx, taskID, updates).Error(0)
}
func (m *mockTaskStore) Delete(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

type mockProjectStore struct{ mock.Mock }

func (m *mockProjectStore) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	args := m.Called(ctx, projectID)
	if p, _ := args.Get(0).(*domain.Project); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, subject, message string) error {
	return m.Called(ctx, subject, message).Error(0)
}

// --- helpers ---

func ptr[T any](v T) *T { return &v }

func newTestService(ts *mockTaskStore, ps *mockProjectStore, ns *mockNotificationStore, pub *mockPublisher) Service {
	deps := ServiceDeps{TaskRepo: ts, ProjectRepo: ps, NotificationRepo: ns}
	if pub != nil {
		deps.Events = pub
	}
	return NewService(deps)
}

func ownedProject() *domain.Project {
	return &domain.Project{ProjectID: "p1", OwnerID: "owner"}
}

// --- Create ---

func TestCreate_AssignmentNotifiesAssignee(t *testing.T) {
	ts := &mockTaskStore{}
	ps := &mockProjectStore{}
	ns := &mockNotificationStore{}
	pub := &mockPublisher{}

	ps.On("Get", mock.Anything, "p1").Return(ownedProject(), nil)
	ts.On("Put", mock.Anything, mock.MatchedBy(func(tk *domain.Task) bool {
		return tk.Status == domain.TaskStatusOpen && tk.CreatorID == "owner"
	})).Return(nil)
	ns.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "bob" && n.TaskID != nil && !n.Read
	})).Return(nil)
	pub.On("Publish", mock.Anything, "task.assigned", mock.Anything).Return(nil)

	svc := newTestService(ts, ps, ns, pub)
	_, err := svc.Create(context.Background(), "p1", "owner", domain.TaskInput{
		Title:      "Ship it",
		AssigneeID: ptr("bob"),
	})

	require.NoError(t, err)
	ns.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreate_SelfAssignmentDoesNotNotify(t *testing.T) {
	ts := &mockTaskStore{}
	ps := &mockProjectStore{}
	ns := &mockNotificationStore{}

	ps.On("Get", mock.Anything, "p1").Return(ownedProject(), nil)
	ts.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(ts, ps, ns, nil)
	_, err := svc.Create(context.Background(), "p1", "owner", domain.TaskInput{
		Title:      "Ship it",
		AssigneeID: ptr("owner"),
	})

	require.NoError(t, err)
	ns.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_ArchivedProject(t *testing.T) {
	ps := &mockProjectStore{}
	archived := ownedProject()
	archived.Archived = true
	ps.On("Get", mock.Anything, "p1").Return(archived, nil)

	svc := newTestService(&mockTaskStore{}, ps, nil, nil)
	_, err := svc.Create(context.Background(), "p1", "owner", domain.TaskInput{Title: "x"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreate_NotificationFailureDoesNotFailTask(t *testing.T) {
	ts := &mockTaskStore{}
	ps := &mockProjectStore{}
	ns := &mockNotificationStore{}

	ps.On("Get", mock.Anything, "p1").Return(ownedProject(), nil)
	ts.On("Put", mock.Anything, mock.Anything).Return(nil)
	ns.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo unavailable"))

	svc := newTestService(ts, ps, ns, nil)
	created, err := svc.Create(context.Background(), "p1", "owner", domain.TaskInput{
		Title:      "Ship it",
		AssigneeID: ptr("bob"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, created.TaskID)
}

// --- Update ---

func TestUpdate_InvalidStatus(t *testing.T) {
	ts := &mockTaskStore{}
	ts.On("Get", mock.Anything, "t1").Return(&domain.Task{TaskID: "t1", ProjectID: "p1", CreatorID: "owner"}, nil)

	svc := newTestService(ts, &mockProjectStore{}, nil, nil)
	_, err := svc.Update(context.Background(), "t1", "owner", false, domain.UpdateTaskRequest{
		Status: ptr("blocked"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdate_ReassignmentNotifiesNewAssignee(t *testing.T) {
	ts := &mockTaskStore{}
	ns := &mockNotificationStore{}

	before := &domain.Task{TaskID: "t1", ProjectID: "p1", CreatorID: "owner", AssigneeID: ptr("bob")}
	after := &domain.Task{TaskID: "t1", ProjectID: "p1", CreatorID: "owner", AssigneeID: ptr("carol"), Title: "Ship it"}
	ts.On("Get", mock.Anything, "t1").Return(before, nil).Once()
	ts.On("Update", mock.Anything, "t1", mock.Anything).Return(nil)
	ts.On("Get", mock.Anything, "t1").Return(after, nil).Once()
	ns.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "carol"
	})).Return(nil)

	svc := newTestService(ts, &mockProjectStore{}, ns, nil)
	_, err := svc.Update(context.Background(), "t1", "owner", false, domain.UpdateTaskRequest{
		AssigneeID: ptr("carol"),
	})

	require.NoError(t, err)
	ns.AssertExpectations(t)
}

// --- access control ---

func TestGet_StrangerIsForbidden(t *testing.T) {
	ts := &mockTaskStore{}
	ps := &mockProjectStore{}
	ts.On("Get", mock.Anything, "t1").Return(&domain.Task{TaskID: "t1", ProjectID: "p1", CreatorID: "owner"}, nil)
	ps.On("Get", mock.Anything, "p1").Return(ownedProject(), nil)

	svc := newTestService(ts, ps, nil, nil)
	_, err := svc.Get(context.Background(), "t1", "stranger", false)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestGet_AssigneeHasAccess(t *testing.T) {
	ts := &mockTaskStore{}
	ts.On("Get", mock.Anything, "t1").Return(&domain.Task{TaskID: "t1", ProjectID: "p1", CreatorID: "owner", AssigneeID: ptr("bob")}, nil)

	svc := newTestService(ts, &mockProjectStore{}, nil, nil)
	tk, err := svc.Get(context.Background(), "t1", "bob", false)

	require.NoError(t, err)
	assert.Equal(t, "t1", tk.TaskID)
}
