package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/infrastructure/token"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID    string
	Email     string
	SessionID string
	Role      string
	// Dev marks a sandbox bypass credential; Legacy marks a refresh token
	// presented as a bearer by an old client.
	Dev    bool
	Legacy bool
}

func (p *Principal) IsAdmin() bool { return p.Role == domain.RoleAdmin }

type devValidator interface {
	ValidateToken(bearer string) (*domain.DevAccount, bool)
}

type sessionLookup interface {
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	Touch(ctx context.Context, sessionID string, at time.Time) error
}

type userLookup interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Authenticator resolves bearer tokens to a Principal. Dispatch order: dev
// bypass, then access-token validation, then a legacy refresh-token-as-bearer
// fallback.
//
// TODO: drop the refresh-token fallback once the pre-rotation mobile clients
// are retired.
type Authenticator struct {
	Issuer   token.Issuer
	Dev      devValidator
	Sessions sessionLookup
	Users    userLookup
	Now      func() time.Time
}

func (a *Authenticator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Middleware validates the Authorization header and injects the Principal.
// All validation failures produce the same generic 401 body.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}
		bearer := strings.TrimPrefix(authHeader, "Bearer ")

		p, err := a.resolve(r.Context(), bearer)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidOrExpired) || errors.Is(err, domain.ErrUnauthorized) {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			} else {
				writeJSONError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		if p.SessionID != "" {
			a.touch(r.Context(), p.SessionID)
		}
		ctx := context.WithValue(r.Context(), PrincipalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) resolve(ctx context.Context, bearer string) (*Principal, error) {
	if a.Dev != nil {
		if acc, ok := a.Dev.ValidateToken(bearer); ok {
			return a.devPrincipal(ctx, acc), nil
		}
	}

	ident, err := a.Issuer.Validate(ctx, bearer)
	if err == nil {
		return a.userPrincipal(ctx, ident, false)
	}
	if !errors.Is(err, domain.ErrInvalidOrExpired) {
		return nil, err
	}

	// Legacy fallback: older clients present the refresh token as a bearer.
	sess, lerr := a.Sessions.GetByRefreshToken(ctx, bearer)
	if lerr != nil {
		if errors.Is(lerr, domain.ErrNotFound) {
			return nil, err
		}
		return nil, lerr
	}
	if a.now().Unix() >= sess.RefreshExpiresAt {
		return nil, err
	}
	ident = token.Identity{UserID: sess.UserID, SessionID: sess.SessionID}
	return a.userPrincipal(ctx, ident, true)
}

func (a *Authenticator) userPrincipal(ctx context.Context, ident token.Identity, legacy bool) (*Principal, error) {
	u, err := a.Users.Get(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidOrExpired
		}
		return nil, err
	}
	if !u.Enable {
		return nil, domain.ErrInvalidOrExpired
	}
	return &Principal{
		UserID:    u.UserID,
		Email:     u.Email,
		SessionID: ident.SessionID,
		Role:      u.Role,
		Legacy:    legacy,
	}, nil
}

// devPrincipal resolves a bypass account. The allow-list entry may or may not
// have a backing user row; the role defaults to a plain user either way.
func (a *Authenticator) devPrincipal(ctx context.Context, acc *domain.DevAccount) *Principal {
	role := domain.RoleUser
	if u, err := a.Users.Get(ctx, acc.UserID); err == nil && u.Enable {
		role = u.Role
	}
	return &Principal{UserID: acc.UserID, Email: acc.Email, Role: role, Dev: true}
}

// touch records last-activity without blocking the request path.
func (a *Authenticator) touch(ctx context.Context, sessionID string) {
	at := a.now().UTC()
	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.Sessions.Touch(ctx, sessionID, at); err != nil {
			slog.Debug("session touch failed", "session_id", sessionID, "err", err)
		}
	}(context.WithoutCancel(ctx))
}

// PrincipalFromContext extracts the authenticated caller from the request context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*Principal)
	return p, ok
}

// RequireRole returns middleware that allows access only to principals whose
// role matches one of the provided role names (e.g. domain.RoleAdmin).
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, role := range allowedRoles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "forbidden")
		})
	}
}
