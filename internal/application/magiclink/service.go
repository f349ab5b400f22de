package magiclink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/infrastructure/token"
	"github.com/hivedesk/api/internal/pkg/id"
	pkgtoken "github.com/hivedesk/api/internal/pkg/token"
)

const fieldLastLoginAt = "last_login_at"

// AuthResult is returned by a successful verification: the resolved user,
// the freshly created session, and the token pair bound to it.
type AuthResult struct {
	User    *domain.User
	Session *domain.Session
	Tokens  token.Pair
}

type Service interface {
	// RequestLink issues a single-use magic link and 6-digit code for the
	// address and hands both to the mailer. Delivery failure is logged, not
	// returned: the persisted record stays redeemable until expiry.
	RequestLink(ctx context.Context, email string, isSignup bool) error
	VerifyToken(ctx context.Context, linkToken string) (*AuthResult, error)
	VerifyCode(ctx context.Context, email, code string) (*AuthResult, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type authMethodStore interface {
	Put(ctx context.Context, m *domain.AuthMethod) error
}

type linkStore interface {
	Put(ctx context.Context, m *domain.MagicLink) error
	GetByToken(ctx context.Context, linkToken string) (*domain.MagicLink, error)
	GetLatestByEmailCode(ctx context.Context, email, code string) (*domain.MagicLink, error)
	Consume(ctx context.Context, linkID string, now time.Time) error
}

type mailer interface {
	SendMagicLink(to, linkURL, code string, isSignup bool) error
}

type sessionCreator interface {
	CreateForUser(ctx context.Context, u *domain.User, deviceName, ip *string) (*domain.Session, token.Pair, error)
}

type service struct {
	userRepo    userStore
	methodRepo  authMethodStore
	linkRepo    linkStore
	mailer      mailer
	sessions    sessionCreator
	linkBaseURL string
	linkTTL     time.Duration
	sandbox     bool
	now         func() time.Time
}

type ServiceDeps struct {
	UserRepo   userStore
	MethodRepo authMethodStore
	LinkRepo   linkStore
	Mailer     mailer
	Sessions   sessionCreator

	LinkBaseURL string
	LinkTTL     time.Duration
	// Sandbox additionally echoes issued links to the log, for local
	// development against a mail sink that may not be running.
	Sandbox bool
	Now     func() time.Time // defaults to time.Now
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		userRepo:    deps.UserRepo,
		methodRepo:  deps.MethodRepo,
		linkRepo:    deps.LinkRepo,
		mailer:      deps.Mailer,
		sessions:    deps.Sessions,
		linkBaseURL: deps.LinkBaseURL,
		linkTTL:     deps.LinkTTL,
		sandbox:     deps.Sandbox,
		now:         now,
	}
}

func (s *service) RequestLink(ctx context.Context, email string, isSignup bool) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if isSignup {
			return fmt.Errorf("email already registered: %w", domain.ErrAlreadyExists)
		}
	case errors.Is(err, domain.ErrNotFound):
		if u, err = s.provision(ctx, email); err != nil {
			return err
		}
	default:
		return err
	}

	linkToken, err := pkgtoken.New()
	if err != nil {
		return err
	}
	code, err := pkgtoken.NewCode()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	link := &domain.MagicLink{
		LinkID:    id.New(),
		UserID:    u.UserID,
		Email:     email,
		Token:     linkToken,
		Code:      code,
		ExpiresAt: now.Add(s.linkTTL).Unix(),
		CreatedAt: now,
	}
	if err := s.linkRepo.Put(ctx, link); err != nil {
		return err
	}

	linkURL := fmt.Sprintf("%s/auth/verify?token=%s", s.linkBaseURL, linkToken)
	if err := s.mailer.SendMagicLink(email, linkURL, code, isSignup); err != nil {
		// Non-fatal: the record is persisted and stays redeemable.
		slog.Warn("magic link delivery failed", "email", email, "err", err)
	}
	if s.sandbox {
		slog.Info("magic link issued", "email", email, "link", linkURL, "code", code)
	}
	return nil
}

func (s *service) VerifyToken(ctx context.Context, linkToken string) (*AuthResult, error) {
	link, err := s.linkRepo.GetByToken(ctx, linkToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown magic link: %w", domain.ErrInvalidOrExpired)
		}
		return nil, err
	}
	return s.redeem(ctx, link)
}

func (s *service) VerifyCode(ctx context.Context, email, code string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	link, err := s.linkRepo.GetLatestByEmailCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown code: %w", domain.ErrInvalidOrExpired)
		}
		return nil, err
	}
	return s.redeem(ctx, link)
}

// redeem consumes the record and issues tokens. Consumption is a conditional
// update keyed on used_at being absent, so of two concurrent redemptions of
// the same record exactly one reaches token issuance.
func (s *service) redeem(ctx context.Context, link *domain.MagicLink) (*AuthResult, error) {
	now := s.now()
	if !link.Valid(now) {
		return nil, fmt.Errorf("magic link expired or already used: %w", domain.ErrInvalidOrExpired)
	}
	if err := s.linkRepo.Consume(ctx, link.LinkID, now); err != nil {
		return nil, err
	}
	u, err := s.userRepo.Get(ctx, link.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrInvalidOrExpired)
	}
	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{fieldLastLoginAt: now.UTC()}); err != nil {
		slog.Warn("failed to record last login", "user_id", u.UserID, "err", err)
	}
	sess, pair, err := s.sessions.CreateForUser(ctx, u, nil, nil)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Session: sess, Tokens: pair}, nil
}

func (s *service) provision(ctx context.Context, email string) (*domain.User, error) {
	now := s.now().UTC()
	u := &domain.User{
		UserID:      id.New(),
		Email:       email,
		DisplayName: displayNameFor(email),
		Role:        domain.RoleUser,
		Enable:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		return nil, err
	}
	m := &domain.AuthMethod{
		UserID:    u.UserID,
		Provider:  domain.ProviderEmail,
		CreatedAt: now,
	}
	if err := s.methodRepo.Put(ctx, m); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return nil, err
	}
	return u, nil
}

// displayNameFor derives a default display name from the email local-part.
func displayNameFor(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}
