package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hivedesk/api/internal/application/magiclink"
	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/infrastructure/token"
)

type mockMagicLinkService struct{ mock.Mock }

func (m *mockMagicLinkService) RequestLink(ctx context.Context, email string, isSignup bool) error {
	return m.Called(ctx, email, isSignup).Error(0)
}
func (m *mockMagicLinkService) VerifyToken(ctx context.Context, linkToken string) (*magiclink.AuthResult, error) {
	args := m.Called(ctx, linkToken)
	if res, _ := args.Get(0).(*magiclink.AuthResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMagicLinkService) VerifyCode(ctx context.Context, email, code string) (*magiclink.AuthResult, error) {
	args := m.Called(ctx, email, code)
	if res, _ := args.Get(0).(*magiclink.AuthResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRequestLink_InvalidEmail(t *testing.T) {
	h := NewAuthHandler(&mockMagicLinkService{})
	rec := post(h.RequestLink, `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestLink_SignupConflict(t *testing.T) {
	svc := &mockMagicLinkService{}
	svc.On("RequestLink", mock.Anything, "alice@example.com", true).Return(domain.ErrAlreadyExists)

	h := NewAuthHandler(svc)
	rec := post(h.RequestLink, `{"email":"alice@example.com","signup":true}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	svc.AssertExpectations(t)
}

func TestRequestLink_Success(t *testing.T) {
	svc := &mockMagicLinkService{}
	svc.On("RequestLink", mock.Anything, "alice@example.com", false).Return(nil)

	h := NewAuthHandler(svc)
	rec := post(h.RequestLink, `{"email":"alice@example.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestVerifyCode_GenericFailureMessage(t *testing.T) {
	svc := &mockMagicLinkService{}
	svc.On("VerifyCode", mock.Anything, "alice@example.com", "123456").Return(nil, domain.ErrInvalidOrExpired)

	h := NewAuthHandler(svc)
	rec := post(h.VerifyCode, `{"email":"alice@example.com","code":"123456"}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	// The body never says whether the code was wrong, used, or expired.
	assert.Equal(t, "invalid or expired", env.Error)
}

func TestVerifyCode_MalformedCode(t *testing.T) {
	h := NewAuthHandler(&mockMagicLinkService{})
	rec := post(h.VerifyCode, `{"email":"alice@example.com","code":"12ab56"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyToken_ReturnsTokenPair(t *testing.T) {
	svc := &mockMagicLinkService{}
	svc.On("VerifyToken", mock.Anything, "tok-1").Return(&magiclink.AuthResult{
		User:    &domain.User{UserID: "u1", Email: "alice@example.com"},
		Session: &domain.Session{SessionID: "s1", UserID: "u1"},
		Tokens:  token.Pair{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 900},
	}, nil)

	h := NewAuthHandler(svc)
	rec := post(h.VerifyToken, `{"token":"tok-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var env AuthEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "at", env.AccessToken)
	assert.Equal(t, "rt", env.RefreshToken)
	assert.Equal(t, int64(900), env.ExpiresIn)
	assert.Equal(t, "u1", env.User.UserID)
}

func TestVerifyLink_MissingToken(t *testing.T) {
	h := NewAuthHandler(&mockMagicLinkService{})
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/verify", nil)
	rec := httptest.NewRecorder()
	h.VerifyLink(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
