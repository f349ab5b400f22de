package magiclink

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

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockMethodStore struct{ mock.Mock }

func (m *mockMethodStore) Put(ctx context.Context, am *domain.AuthMethod) error {
	return m.Called(ctx, am).Error(0)
}

type mockLinkStore struct{ mock.Mock }

func (m *mockLinkStore) Put(ctx context.Context, l *domain.MagicLink) error {
	return m.Called(ctx, l).Error(0)
}
func (m *mockLinkStore) GetByToken(ctx context.Context, linkToken string) (*domain.MagicLink, error) {
	args := m.Called(ctx, linkToken)
	if l, _ := args.Get(0).(*domain.MagicLink); l != nil {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockLinkStore) GetLatestByEmailCode(ctx context.Context, email, code string) (*domain.MagicLink, error) {
	args := m.Called(ctx, email, code)
	if l, _ := args.Get(0).(*domain.MagicLink); l != nil {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockLinkStore) Consume(ctx context.Context, linkID string, now time.Time) error {
	return m.Called(ctx, linkID, now).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendMagicLink(to, linkURL, code string, isSignup bool) error {
	return m.Called(to, linkURL, code, isSignup).Error(0)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) CreateForUser(ctx context.Context, u *domain.User, deviceName, ip *string) (*domain.Session, token.Pair, error) {
	args := m.Called(ctx, u, deviceName, ip)
	sess, _ := args.Get(0).(*domain.Session)
	pair, _ := args.Get(1).(token.Pair)
	return sess, pair, args.Error(2)
}

// --- helpers ---

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(us *mockUserStore, ms *mockMethodStore, ls *mockLinkStore, mail *mockMailer, sess *mockSessions) Service {
	return NewService(ServiceDeps{
		UserRepo:    us,
		MethodRepo:  ms,
		LinkRepo:    ls,
		Mailer:      mail,
		Sessions:    sess,
		LinkBaseURL: "http://localhost:3000",
		LinkTTL:     15 * time.Minute,
		Now:         func() time.Time { return testNow },
	})
}

func freshLink() *domain.MagicLink {
	return &domain.MagicLink{
		LinkID:    "l1",
		UserID:    "u1",
		Email:     "alice@example.com",
		Token:     "tok-1",
		Code:      "123456",
		ExpiresAt: testNow.Add(10 * time.Minute).Unix(),
		CreatedAt: testNow.Add(-5 * time.Minute),
	}
}

func activeUser() *domain.User {
	return &domain.User{UserID: "u1", Email: "alice@example.com", Enable: true}
}

// --- RequestLink ---

func TestRequestLink_SignupConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(), nil)

	svc := newTestService(us, nil, nil, nil, nil)
	err := svc.RequestLink(context.Background(), "alice@example.com", true)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
	us.AssertExpectations(t)
}

func TestRequestLink_ProvisionsUnseenEmail(t *testing.T) {
	us := &mockUserStore{}
	ms := &mockMethodStore{}
	ls := &mockLinkStore{}
	mail := &mockMailer{}

	us.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "new@example.com" && u.DisplayName == "new" && u.Enable && u.Role == domain.RoleUser
	})).Return(nil)
	ms.On("Put", mock.Anything, mock.MatchedBy(func(am *domain.AuthMethod) bool {
		return am.Provider == domain.ProviderEmail
	})).Return(nil)
	ls.On("Put", mock.Anything, mock.MatchedBy(func(l *domain.MagicLink) bool {
		return l.Email == "new@example.com" &&
			l.ExpiresAt == testNow.Add(15*time.Minute).Unix() &&
			l.UsedAt == nil && len(l.Code) == 6 && l.Token != ""
	})).Return(nil)
	mail.On("SendMagicLink", "new@example.com", mock.Anything, mock.Anything, false).Return(nil)

	svc := newTestService(us, ms, ls, mail, nil)
	err := svc.RequestLink(context.Background(), "New@Example.com ", false)

	require.NoError(t, err)
	us.AssertExpectations(t)
	ms.AssertExpectations(t)
	ls.AssertExpectations(t)
	mail.AssertExpectations(t)
}

func TestRequestLink_DeliveryFailureIsNonFatal(t *testing.T) {
	us := &mockUserStore{}
	ls := &mockLinkStore{}
	mail := &mockMailer{}

	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(), nil)
	ls.On("Put", mock.Anything, mock.Anything).Return(nil)
	mail.On("SendMagicLink", "alice@example.com", mock.Anything, mock.Anything, false).
		Return(errors.New("smtp: connection refused"))

	svc := newTestService(us, nil, ls, mail, nil)
	err := svc.RequestLink(context.Background(), "alice@example.com", false)

	require.NoError(t, err)
	ls.AssertExpectations(t)
	mail.AssertExpectations(t)
}

func TestRequestLink_StoreFailurePropagates(t *testing.T) {
	us := &mockUserStore{}
	storeErr := errors.New("dynamo unavailable")
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, storeErr)

	svc := newTestService(us, nil, nil, nil, nil)
	err := svc.RequestLink(context.Background(), "alice@example.com", false)

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInvalidOrExpired))
	assert.False(t, errors.Is(err, domain.ErrAlreadyExists))
}

// --- VerifyToken ---

func TestVerifyToken_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ls := &mockLinkStore{}
	sess := &mockSessions{}

	link := freshLink()
	u := activeUser()
	pair := token.Pair{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 900}

	ls.On("GetByToken", mock.Anything, "tok-1").Return(link, nil)
	ls.On("Consume", mock.Anything, "l1", testNow).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(u, nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	sess.On("CreateForUser", mock.Anything, u, (*string)(nil), (*string)(nil)).
		Return(&domain.Session{SessionID: "s1", UserID: "u1"}, pair, nil)

	svc := newTestService(us, nil, ls, nil, sess)
	res, err := svc.VerifyToken(context.Background(), "tok-1")

	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.UserID)
	assert.Equal(t, "at", res.Tokens.AccessToken)
	assert.Equal(t, "rt", res.Tokens.RefreshToken)
	ls.AssertExpectations(t)
	us.AssertExpectations(t)
	sess.AssertExpectations(t)
}

func TestVerifyToken_Unknown(t *testing.T) {
	ls := &mockLinkStore{}
	ls.On("GetByToken", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	svc := newTestService(nil, nil, ls, nil, nil)
	_, err := svc.VerifyToken(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestVerifyToken_AlreadyUsed(t *testing.T) {
	ls := &mockLinkStore{}
	link := freshLink()
	usedAt := testNow.Add(-time.Minute)
	link.UsedAt = &usedAt
	ls.On("GetByToken", mock.Anything, "tok-1").Return(link, nil)

	svc := newTestService(nil, nil, ls, nil, nil)
	_, err := svc.VerifyToken(context.Background(), "tok-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
	ls.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyToken_ExpiryBoundary(t *testing.T) {
	mk := func(expiresAt time.Time) *mockLinkStore {
		ls := &mockLinkStore{}
		link := freshLink()
		link.ExpiresAt = expiresAt.Unix()
		ls.On("GetByToken", mock.Anything, "tok-1").Return(link, nil)
		return ls
	}

	// One second past expiry fails.
	ls := mk(testNow.Add(-time.Second))
	svc := newTestService(nil, nil, ls, nil, nil)
	_, err := svc.VerifyToken(context.Background(), "tok-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))

	// One second before expiry proceeds to consumption.
	us := &mockUserStore{}
	sess := &mockSessions{}
	ls = mk(testNow.Add(time.Second))
	ls.On("Consume", mock.Anything, "l1", testNow).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(activeUser(), nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	sess.On("CreateForUser", mock.Anything, mock.Anything, (*string)(nil), (*string)(nil)).
		Return(&domain.Session{SessionID: "s1"}, token.Pair{AccessToken: "at"}, nil)

	svc = newTestService(us, nil, ls, nil, sess)
	_, err = svc.VerifyToken(context.Background(), "tok-1")
	require.NoError(t, err)
}

func TestVerifyToken_LostConsumeRace(t *testing.T) {
	ls := &mockLinkStore{}
	ls.On("GetByToken", mock.Anything, "tok-1").Return(freshLink(), nil)
	ls.On("Consume", mock.Anything, "l1", testNow).Return(domain.ErrInvalidOrExpired)

	svc := newTestService(nil, nil, ls, nil, nil)
	_, err := svc.VerifyToken(context.Background(), "tok-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestVerifyToken_DisabledAccount(t *testing.T) {
	us := &mockUserStore{}
	ls := &mockLinkStore{}
	ls.On("GetByToken", mock.Anything, "tok-1").Return(freshLink(), nil)
	ls.On("Consume", mock.Anything, "l1", testNow).Return(nil)
	disabled := activeUser()
	disabled.Enable = false
	us.On("Get", mock.Anything, "u1").Return(disabled, nil)

	svc := newTestService(us, nil, ls, nil, nil)
	_, err := svc.VerifyToken(context.Background(), "tok-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

// --- VerifyCode ---

func TestVerifyCode_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ls := &mockLinkStore{}
	sess := &mockSessions{}

	ls.On("GetLatestByEmailCode", mock.Anything, "alice@example.com", "123456").Return(freshLink(), nil)
	ls.On("Consume", mock.Anything, "l1", testNow).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(activeUser(), nil)
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	sess.On("CreateForUser", mock.Anything, mock.Anything, (*string)(nil), (*string)(nil)).
		Return(&domain.Session{SessionID: "s1"}, token.Pair{AccessToken: "at"}, nil)

	svc := newTestService(us, nil, ls, nil, sess)
	res, err := svc.VerifyCode(context.Background(), "Alice@Example.com", "123456")

	require.NoError(t, err)
	assert.Equal(t, "at", res.Tokens.AccessToken)
	ls.AssertExpectations(t)
}

func TestVerifyCode_WrongCode(t *testing.T) {
	ls := &mockLinkStore{}
	ls.On("GetLatestByEmailCode", mock.Anything, "alice@example.com", "000000").Return(nil, domain.ErrNotFound)

	svc := newTestService(nil, nil, ls, nil, nil)
	_, err := svc.VerifyCode(context.Background(), "alice@example.com", "000000")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestVerifyCode_StoreFailureIsNotInvalid(t *testing.T) {
	ls := &mockLinkStore{}
	storeErr := errors.New("dynamo unavailable")
	ls.On("GetLatestByEmailCode", mock.Anything, "alice@example.com", "123456").Return(nil, storeErr)

	svc := newTestService(nil, nil, ls, nil, nil)
	_, err := svc.VerifyCode(context.Background(), "alice@example.com", "123456")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInvalidOrExpired))
}
