package domain

import "time"

type Session struct {
	SessionID        string    `json:"id" dynamodbav:"session_id"`
	UserID           string    `json:"user_id" dynamodbav:"user_id"`
	AccessToken      string    `json:"-" dynamodbav:"access_token"`
	RefreshToken     string    `json:"-" dynamodbav:"refresh_token"`
	RefreshExpiresAt int64     `json:"refresh_expires_at" dynamodbav:"refresh_expires_at"`
	LastActiveAt     time.Time `json:"last_active_at" dynamodbav:"last_active_at"`
	DeviceName       *string   `json:"device_name,omitempty" dynamodbav:"device_name"`
	IP               *string   `json:"ip,omitempty" dynamodbav:"ip"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
	User             *User     `json:"user,omitempty" dynamodbav:"-"`
}
