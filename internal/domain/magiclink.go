package domain

import "time"

// MagicLink is a single-use sign-in credential. A record is valid iff
// used_at is absent and now < expires_at; consumption marks used_at exactly
// once before any tokens are issued.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type MagicLink struct {
	LinkID    string     `json:"id" dynamodbav:"link_id"`
	UserID    string     `json:"user_id" dynamodbav:"user_id"`
	Email     string     `json:"email" dynamodbav:"email"`
	Token     string     `json:"-" dynamodbav:"token"`
	Code      string     `json:"-" dynamodbav:"code"`
	ExpiresAt int64      `json:"expires_at" dynamodbav:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty" dynamodbav:"used_at"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
}

// Valid reports whether the link can still be redeemed at the given instant.
func (m *MagicLink) Valid(now time.Time) bool {
	return m.UsedAt == nil && now.Unix() < m.ExpiresAt
}
