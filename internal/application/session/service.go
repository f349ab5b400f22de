package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/infrastructure/token"
	"github.com/hivedesk/api/internal/pkg/id"
)

type Service interface {
	// CreateForUser mints a token pair and persists a new session bound to it.
	CreateForUser(ctx context.Context, u *domain.User, deviceName, ip *string) (*domain.Session, token.Pair, error)
	// Refresh exchanges a refresh token for a fresh pair, rotating the stored
	// token atomically. The old refresh token is never valid again.
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, token.Pair, error)
	Touch(ctx context.Context, sessionID string) error
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	Rotate(ctx context.Context, sessionID, oldToken, newAccess, newRefresh string, newExpiry int64) error
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Delete(ctx context.Context, sessionID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	sessionRepo sessionStore
	userRepo    userStore
	issuer      token.Issuer
	refreshTTL  time.Duration
	now         func() time.Time
}

type ServiceDeps struct {
	SessionRepo sessionStore
	UserRepo    userStore
	Issuer      token.Issuer
	RefreshTTL  time.Duration
	Now         func() time.Time // defaults to time.Now
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		sessionRepo: deps.SessionRepo,
		userRepo:    deps.UserRepo,
		issuer:      deps.Issuer,
		refreshTTL:  deps.RefreshTTL,
		now:         now,
	}
}

func (s *service) CreateForUser(ctx context.Context, u *domain.User, deviceName, ip *string) (*domain.Session, token.Pair, error) {
	sessionID := id.New()
	pair, err := s.issuer.Issue(ctx, u.UserID, u.Email, sessionID)
	if err != nil {
		return nil, token.Pair{}, err
	}
	now := s.now().UTC()
	sess := &domain.Session{
		SessionID:        sessionID,
		UserID:           u.UserID,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: now.Add(s.refreshTTL).Unix(),
		LastActiveAt:     now,
		DeviceName:       deviceName,
		IP:               ip,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, token.Pair{}, err
	}
	sess.User = u
	return sess, pair, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.Session, token.Pair, error) {
	sess, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, token.Pair{}, fmt.Errorf("unknown refresh token: %w", domain.ErrInvalidOrExpired)
		}
		return nil, token.Pair{}, err
	}
	now := s.now()
	if now.Unix() >= sess.RefreshExpiresAt {
		return nil, token.Pair{}, fmt.Errorf("refresh token expired: %w", domain.ErrInvalidOrExpired)
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, token.Pair{}, err
	}
	if !u.Enable {
		return nil, token.Pair{}, fmt.Errorf("account disabled: %w", domain.ErrInvalidOrExpired)
	}
	pair, err := s.issuer.Issue(ctx, u.UserID, u.Email, sess.SessionID)
	if err != nil {
		return nil, token.Pair{}, err
	}
	newExpiry := now.Add(s.refreshTTL).Unix()
	// Conditional on the old token still being current; a concurrent rotation
	// of the same token makes exactly one caller win.
	if err := s.sessionRepo.Rotate(ctx, sess.SessionID, refreshToken, pair.AccessToken, pair.RefreshToken, newExpiry); err != nil {
		return nil, token.Pair{}, err
	}
	sess.AccessToken = pair.AccessToken
	sess.RefreshToken = pair.RefreshToken
	sess.RefreshExpiresAt = newExpiry
	sess.User = u
	return sess, pair, nil
}

func (s *service) Touch(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Touch(ctx, sessionID, s.now().UTC())
}

// Logout is idempotent: deleting a session that no longer exists is a no-op.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}
