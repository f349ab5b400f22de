package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UserID      string     `json:"id" dynamodbav:"user_id"`
	Email       string     `json:"email" dynamodbav:"email"`
	Username    *string    `json:"username,omitempty" dynamodbav:"username"`
	DisplayName string     `json:"display_name" dynamodbav:"display_name"`
	Phone       *string    `json:"phone,omitempty" dynamodbav:"phone"`
	Role        string     `json:"role" dynamodbav:"role"`
	Enable      bool       `json:"enable" dynamodbav:"enable"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" dynamodbav:"last_login_at"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type UpdateUserRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	Role        *string `json:"role"`
	Enable      *bool   `json:"enable"`
}
