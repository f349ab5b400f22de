package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/infrastructure/token"
)

// --- mocks ---

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	args := m.Called(ctx, refreshToken)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) Rotate(ctx context.Context, sessionID, oldToken, newAccess, newRefresh string, newExpiry int64) error {
	return m.Called(ctx, sessionID, oldToken, newAccess, newRefresh, newExpiry).Error(0)
}
func (m *mockSessionStore) Touch(ctx context.Context, sessionID string, at time.Time) error {
	return m.Called(ctx, sessionID, at).Error(0)
}
func (m *mockSessionStore) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockIssuer struct{ mock.Mock }

func (m *mockIssuer) Issue(ctx context.Context, userID, email, sessionID string) (token.Pair, error) {
	args := m.Called(ctx, userID, email, sessionID)
	pair, _ := args.Get(0).(token.Pair)
	return pair, args.Error(1)
}
func (m *mockIssuer) Validate(ctx context.Context, accessToken string) (token.Identity, error) {
	args := m.Called(ctx, accessToken)
	ident, _ := args.Get(0).(token.Identity)
	return ident, args.Error(1)
}

// --- helpers ---

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(ss *mockSessionStore, us *mockUserStore, iss *mockIssuer) Service {
	return NewService(ServiceDeps{
		SessionRepo: ss,
		UserRepo:    us,
		Issuer:      iss,
		RefreshTTL:  7 * 24 * time.Hour,
		Now:         func() time.Time { return testNow },
	})
}

func liveSession() *domain.Session {
	return &domain.Session{
		SessionID:        "s1",
		UserID:           "u1",
		AccessToken:      "old-at",
		RefreshToken:     "old-rt",
		RefreshExpiresAt: testNow.Add(24 * time.Hour).Unix(),
	}
}

// --- CreateForUser ---

func TestCreateForUser_PersistsSessionWithPair(t *testing.T) {
	ss := &mockSessionStore{}
	iss := &mockIssuer{}
	u := &domain.User{UserID: "u1", Email: "alice@example.com", Enable: true}
	pair := token.Pair{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 900}

	iss.On("Issue", mock.Anything, "u1", "alice@example.com", mock.AnythingOfType("string")).Return(pair, nil)
	ss.On("Put", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool {
		return s.UserID == "u1" && s.AccessToken == "at" && s.RefreshToken == "rt" &&
			s.RefreshExpiresAt == testNow.Add(7*24*time.Hour).Unix()
	})).Return(nil)

	svc := newTestService(ss, nil, iss)
	sess, got, err := svc.CreateForUser(context.Background(), u, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, pair, got)
	assert.Equal(t, u, sess.User)
	ss.AssertExpectations(t)
	iss.AssertExpectations(t)
}

// --- Refresh ---

func TestRefresh_RotatesAtomically(t *testing.T) {
	ss := &mockSessionStore{}
	us := &mockUserStore{}
	iss := &mockIssuer{}
	newPair := token.Pair{AccessToken: "new-at", RefreshToken: "new-rt", ExpiresIn: 900}

	ss.On("GetByRefreshToken", mock.Anything, "old-rt").Return(liveSession(), nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "alice@example.com", Enable: true}, nil)
	iss.On("Issue", mock.Anything, "u1", "alice@example.com", "s1").Return(newPair, nil)
	ss.On("Rotate", mock.Anything, "s1", "old-rt", "new-at", "new-rt",
		testNow.Add(7*24*time.Hour).Unix()).Return(nil)

	svc := newTestService(ss, us, iss)
	sess, pair, err := svc.Refresh(context.Background(), "old-rt")

	require.NoError(t, err)
	assert.Equal(t, newPair, pair)
	assert.Equal(t, "new-rt", sess.RefreshToken)
	ss.AssertExpectations(t)
}

func TestRefresh_UnknownToken(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	svc := newTestService(ss, nil, nil)
	_, _, err := svc.Refresh(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestRefresh_ExpiredToken(t *testing.T) {
	ss := &mockSessionStore{}
	sess := liveSession()
	sess.RefreshExpiresAt = testNow.Add(-time.Second).Unix()
	ss.On("GetByRefreshToken", mock.Anything, "old-rt").Return(sess, nil)

	svc := newTestService(ss, nil, nil)
	_, _, err := svc.Refresh(context.Background(), "old-rt")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestRefresh_LostRotationRace(t *testing.T) {
	ss := &mockSessionStore{}
	us := &mockUserStore{}
	iss := &mockIssuer{}

	ss.On("GetByRefreshToken", mock.Anything, "old-rt").Return(liveSession(), nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "alice@example.com", Enable: true}, nil)
	iss.On("Issue", mock.Anything, "u1", "alice@example.com", "s1").Return(token.Pair{AccessToken: "a", RefreshToken: "r"}, nil)
	ss.On("Rotate", mock.Anything, "s1", "old-rt", "a", "r", mock.Anything).Return(domain.ErrInvalidOrExpired)

	svc := newTestService(ss, us, iss)
	_, _, err := svc.Refresh(context.Background(), "old-rt")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestRefresh_StoreFailureIsNotInvalid(t *testing.T) {
	ss := &mockSessionStore{}
	storeErr := errors.New("dynamo unavailable")
	ss.On("GetByRefreshToken", mock.Anything, "old-rt").Return(nil, storeErr)

	svc := newTestService(ss, nil, nil)
	_, _, err := svc.Refresh(context.Background(), "old-rt")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

// --- Logout / Touch ---

func TestLogout_Idempotent(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Delete", mock.Anything, "s1").Return(domain.ErrNotFound)

	svc := newTestService(ss, nil, nil)
	require.NoError(t, svc.Logout(context.Background(), "s1"))
}

func TestLogout_PropagatesStoreError(t *testing.T) {
	ss := &mockSessionStore{}
	storeErr := errors.New("dynamo unavailable")
	ss.On("Delete", mock.Anything, "s1").Return(storeErr)

	svc := newTestService(ss, nil, nil)
	err := svc.Logout(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, storeErr, err)
}

func TestTouch_UpdatesLastActive(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Touch", mock.Anything, "s1", testNow).Return(nil)

	svc := newTestService(ss, nil, nil)
	require.NoError(t, svc.Touch(context.Background(), "s1"))
	ss.AssertExpectations(t)
}
