package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hivedesk/api/internal/domain"
	pkgtoken "github.com/hivedesk/api/internal/pkg/token"
)

// signedClaims is the payload of a self-describing access token.
type signedClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// SignedIssuer issues HS256-signed, self-describing access tokens. Validation
// needs no shared store, so any instance can validate a token issued by any
// other. Refresh tokens stay opaque and random; rotation is still enforced
// through the session row.
type SignedIssuer struct {
	key       []byte
	accessTTL time.Duration
	now       func() time.Time
}

var _ Issuer = (*SignedIssuer)(nil)

func NewSignedIssuer(key string, accessTTL time.Duration) (*SignedIssuer, error) {
	if key == "" {
		return nil, fmt.Errorf("signing key is required for the signed token backend")
	}
	return &SignedIssuer{key: []byte(key), accessTTL: accessTTL, now: time.Now}, nil
}

func (i *SignedIssuer) Issue(_ context.Context, userID, email, sessionID string) (Pair, error) {
	refresh, err := pkgtoken.New()
	if err != nil {
		return Pair{}, err
	}
	now := i.now()
	claims := signedClaims{
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

func (i *SignedIssuer) Validate(_ context.Context, accessToken string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(accessToken, &signedClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil {
		return Identity{}, fmt.Errorf("parse access token: %w", domain.ErrInvalidOrExpired)
	}
	claims, ok := parsed.Claims.(*signedClaims)
	if !ok || !parsed.Valid {
		return Identity{}, fmt.Errorf("invalid token claims: %w", domain.ErrInvalidOrExpired)
	}
	return Identity{UserID: claims.UserID, Email: claims.Email, SessionID: claims.SessionID}, nil
}
