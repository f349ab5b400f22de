package domain

import "time"

const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

type Task struct {
	TaskID     string     `json:"id" dynamodbav:"task_id"`
	ProjectID  string     `json:"project_id" dynamodbav:"project_id"`
	CreatorID  string     `json:"creator_id" dynamodbav:"creator_id"`
	AssigneeID *string    `json:"assignee_id,omitempty" dynamodbav:"assignee_id"`
	Title      string     `json:"title" dynamodbav:"title"`
	Body       string     `json:"body" dynamodbav:"body"`
	Status     string     `json:"status" dynamodbav:"status"`
	DueAt      *time.Time `json:"due_at,omitempty" dynamodbav:"due_at"`
	CreatedAt  time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type TaskInput struct {
	Title      string  `json:"title" validate:"required,max=200"`
	Body       string  `json:"body" validate:"max=10000"`
	AssigneeID *string `json:"assignee_id"`
	DueAt      *string `json:"due_at"` // RFC 3339
}

type UpdateTaskRequest struct {
	Title      *string `json:"title" validate:"omitempty,max=200"`
	Body       *string `json:"body" validate:"omitempty,max=10000"`
	Status     *string `json:"status" validate:"omitempty,oneof=open in_progress done"`
	AssigneeID *string `json:"assignee_id"`
	DueAt      *string `json:"due_at"`
}
