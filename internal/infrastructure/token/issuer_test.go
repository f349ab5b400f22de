package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hivedesk/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store unavailable")

type failingStore struct{}

func (failingStore) Save(context.Context, Record) error { return errStoreDown }
func (failingStore) Get(context.Context, string) (Record, error) {
	return Record{}, errStoreDown
}
func (failingStore) Delete(context.Context, string) error { return errStoreDown }

func TestOpaqueIssuer_IssueAndValidate(t *testing.T) {
	issuer := NewOpaqueIssuer(NewMemoryStore(), 15*time.Minute)

	pair, err := issuer.Issue(context.Background(), "u1", "a@b.com", "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	ident, err := issuer.Validate(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Email: "a@b.com", SessionID: "s1"}, ident)
}

func TestOpaqueIssuer_UnknownToken(t *testing.T) {
	issuer := NewOpaqueIssuer(NewMemoryStore(), 15*time.Minute)
	_, err := issuer.Validate(context.Background(), "no-such-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestOpaqueIssuer_ExpiryBoundary(t *testing.T) {
	store := NewMemoryStore()
	issuer := NewOpaqueIssuer(store, 15*time.Minute)

	issued := time.Now()
	issuer.now = func() time.Time { return issued }
	pair, err := issuer.Issue(context.Background(), "u1", "a@b.com", "s1")
	require.NoError(t, err)

	// One second before expiry: still valid.
	issuer.now = func() time.Time { return issued.Add(15*time.Minute - time.Second) }
	_, err = issuer.Validate(context.Background(), pair.AccessToken)
	assert.NoError(t, err)

	// One second after expiry: rejected and evicted.
	issuer.now = func() time.Time { return issued.Add(15*time.Minute + time.Second) }
	_, err = issuer.Validate(context.Background(), pair.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))

	_, err = store.Get(context.Background(), pair.AccessToken)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "expired record must be evicted")
}

func TestOpaqueIssuer_StoreFailureIsNotInvalid(t *testing.T) {
	issuer := NewOpaqueIssuer(failingStore{}, 15*time.Minute)
	_, err := issuer.Validate(context.Background(), "any")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInvalidOrExpired),
		"an unavailable store must not be reported as an invalid token")
	assert.True(t, errors.Is(err, errStoreDown))
}

func TestSignedIssuer_IssueAndValidate(t *testing.T) {
	issuer, err := NewSignedIssuer("test-signing-key", 15*time.Minute)
	require.NoError(t, err)

	pair, err := issuer.Issue(context.Background(), "u1", "a@b.com", "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)

	ident, err := issuer.Validate(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Email: "a@b.com", SessionID: "s1"}, ident)
}

func TestSignedIssuer_Expiry(t *testing.T) {
	issuer, err := NewSignedIssuer("test-signing-key", 15*time.Minute)
	require.NoError(t, err)

	issued := time.Now()
	issuer.now = func() time.Time { return issued }
	pair, err := issuer.Issue(context.Background(), "u1", "a@b.com", "s1")
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = issuer.Validate(context.Background(), pair.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestSignedIssuer_WrongKeyRejected(t *testing.T) {
	a, err := NewSignedIssuer("key-a", 15*time.Minute)
	require.NoError(t, err)
	b, err := NewSignedIssuer("key-b", 15*time.Minute)
	require.NoError(t, err)

	pair, err := a.Issue(context.Background(), "u1", "a@b.com", "s1")
	require.NoError(t, err)

	_, err = b.Validate(context.Background(), pair.AccessToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestSignedIssuer_RequiresKey(t *testing.T) {
	_, err := NewSignedIssuer("", 15*time.Minute)
	assert.Error(t, err)
}
