package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hivedesk/api/internal/domain"
	pkgtoken "github.com/hivedesk/api/internal/pkg/token"
)

// Pair is one issued access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

// Identity is the resolved owner of a valid access token.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

// Record maps an opaque access token to its owner. expires_at doubles as the
// DynamoDB TTL attribute when the shared store backend is used.
type Record struct {
	Token     string `dynamodbav:"token"`
	UserID    string `dynamodbav:"user_id"`
	Email     string `dynamodbav:"email"`
	SessionID string `dynamodbav:"session_id"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// Store persists access token records. Backends: in-process map (single
// instance) or the DynamoDB access_tokens table (multi-instance).
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, token string) (Record, error)
	Delete(ctx context.Context, token string) error
}

// Issuer mints and validates access/refresh token pairs.
type Issuer interface {
	// Issue returns a fresh pair bound to (userID, email, sessionID).
	Issue(ctx context.Context, userID, email, sessionID string) (Pair, error)
	// Validate resolves an access token, failing with
	// domain.ErrInvalidOrExpired once the access window has elapsed.
	Validate(ctx context.Context, accessToken string) (Identity, error)
}

// OpaqueIssuer issues random opaque tokens backed by a Store.
type OpaqueIssuer struct {
	store     Store
	accessTTL time.Duration
	now       func() time.Time
}

func NewOpaqueIssuer(store Store, accessTTL time.Duration) *OpaqueIssuer {
	return &OpaqueIssuer{store: store, accessTTL: accessTTL, now: time.Now}
}

var _ Issuer = (*OpaqueIssuer)(nil)

func (i *OpaqueIssuer) Issue(ctx context.Context, userID, email, sessionID string) (Pair, error) {
	access, err := pkgtoken.New()
	if err != nil {
		return Pair{}, err
	}
	refresh, err := pkgtoken.New()
	if err != nil {
		return Pair{}, err
	}
	rec := Record{
		Token:     access,
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		ExpiresAt: i.now().Add(i.accessTTL).Unix(),
	}
	if err := i.store.Save(ctx, rec); err != nil {
		return Pair{}, fmt.Errorf("save access token: %w", err)
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

func (i *OpaqueIssuer) Validate(ctx context.Context, accessToken string) (Identity, error) {
	rec, err := i.store.Get(ctx, accessToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Identity{}, fmt.Errorf("unknown access token: %w", domain.ErrInvalidOrExpired)
		}
		// Store unavailability must surface as a failure, never as "invalid".
		return Identity{}, fmt.Errorf("access token lookup: %w", err)
	}
	if i.now().Unix() >= rec.ExpiresAt {
		_ = i.store.Delete(ctx, accessToken)
		return Identity{}, fmt.Errorf("access token expired: %w", domain.ErrInvalidOrExpired)
	}
	return Identity{UserID: rec.UserID, Email: rec.Email, SessionID: rec.SessionID}, nil
}
