package devauth

import (
	"github.com/hivedesk/api/internal/domain"
)

// Service is the sandbox-only bypass authenticator. It holds a fixed
// allow-list of accounts with permanent tokens and answers nothing at all
// unless the trusted-sandbox predicate holds.
//
// The predicate is a function rather than a captured bool so it is evaluated
// on every call. Configuration computes it once from the environment, so the
// answer never changes mid-process, but re-asking keeps the gate in one place.
type Service interface {
	ListAccounts() []domain.DevAccount
	// ValidateToken matches a bearer value against the allow-list's permanent
	// tokens. Always (nil, false) when the predicate is false, regardless of
	// the token value.
	ValidateToken(bearer string) (*domain.DevAccount, bool)
}

type service struct {
	accounts []domain.DevAccount
	sandbox  func() bool
}

func NewService(accounts []domain.DevAccount, sandbox func() bool) Service {
	return &service{accounts: accounts, sandbox: sandbox}
}

func (s *service) ListAccounts() []domain.DevAccount {
	if !s.sandbox() {
		return nil
	}
	return s.accounts
}

func (s *service) ValidateToken(bearer string) (*domain.DevAccount, bool) {
	if !s.sandbox() || bearer == "" {
		return nil, false
	}
	for i := range s.accounts {
		if s.accounts[i].Token == bearer {
			return &s.accounts[i], true
		}
	}
	return nil, false
}
