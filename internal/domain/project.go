package domain

import "time"

type Project struct {
	ProjectID   string    `json:"id" dynamodbav:"project_id"`
	OwnerID     string    `json:"owner_id" dynamodbav:"owner_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Description string    `json:"description" dynamodbav:"description"`
	Archived    bool      `json:"archived" dynamodbav:"archived"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type ProjectInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Archived    *bool   `json:"archived"`
}
