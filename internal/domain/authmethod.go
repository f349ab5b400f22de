package domain

import "time"

// Auth method providers. Only EMAIL is an active login path; the rest are
// recorded as metadata for accounts provisioned through other channels.
const (
	ProviderEmail     = "email"
	ProviderPhone     = "phone"
	ProviderFederated = "federated"
	ProviderPasskey   = "passkey"
)

// AuthMethod records one way a user may authenticate.
// PK: user_id, SK: provider. (provider, provider_id) is unique system-wide
// when provider_id is present.
type AuthMethod struct {
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Provider   string    `json:"provider" dynamodbav:"provider"`
	ProviderID string    `json:"provider_id,omitempty" dynamodbav:"provider_id"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}
