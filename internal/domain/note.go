package domain

import "time"

type Note struct {
	NoteID    string    `json:"id" dynamodbav:"note_id"`
	ProjectID string    `json:"project_id" dynamodbav:"project_id"`
	AuthorID  string    `json:"author_id" dynamodbav:"author_id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Body      string    `json:"body" dynamodbav:"body"`
	Pinned    bool      `json:"pinned" dynamodbav:"pinned"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type NoteInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=50000"`
}

type UpdateNoteRequest struct {
	Title  *string `json:"title" validate:"omitempty,max=200"`
	Body   *string `json:"body" validate:"omitempty,max=50000"`
	Pinned *bool   `json:"pinned"`
}
