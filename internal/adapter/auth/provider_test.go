package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]storage.UserRecord
}

func (m *memoryUsers) CreateUser(_ context.Context, u storage.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; ok {
		return domain.ErrEmailTaken
	}
	m.users[key] = u
	return nil
}

func (m *memoryUsers) UserByEmail(_ context.Context, email string) (storage.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return storage.UserRecord{}, domain.ErrNotFound
	}
	return u, nil
}

func newTestProvider() *Provider {
	users := &memoryUsers{users: make(map[string]storage.UserRecord)}
	return NewProvider(users, "test-secret", time.Hour, BcryptCostOpt(bcrypt.MinCost))
}

func TestProviderSignUpSignIn(t *testing.T) {
	p := newTestProvider()
	ctx := t.Context()

	user, token, err := p.SignUp(ctx, "Bob", "bob@shop.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.UID)
	assert.Equal(t, "Bob", user.DisplayName)

	verified, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user, verified)

	_, _, err = p.SignUp(ctx, "Bob", "BOB@shop.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	signedIn, _, err := p.SignIn(ctx, "bob@shop.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.UID, signedIn.UID)

	_, _, err = p.SignIn(ctx, "bob@shop.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = p.SignIn(ctx, "alice@shop.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestProviderSignOut(t *testing.T) {
	p := newTestProvider()
	_, token, err := p.SignUp(t.Context(), "Bob", "bob@shop.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(t.Context(), token))
	_, err = p.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	assert.ErrorIs(t, p.SignOut(t.Context(), "garbage"), domain.ErrUnauthenticated)
}

func TestProviderTokenExpiry(t *testing.T) {
	p := newTestProvider()
	_, token, err := p.SignUp(t.Context(), "Bob", "bob@shop.com", "secret1")
	require.NoError(t, err)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = p.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	assert.NoError(t, p.SignOut(t.Context(), token))
}

func TestProviderRejectsForeignSecret(t *testing.T) {
	other := NewProvider(
		&memoryUsers{users: make(map[string]storage.UserRecord)},
		"other-secret", time.Hour, BcryptCostOpt(bcrypt.MinCost),
	)
	_, token, err := other.SignUp(t.Context(), "Bob", "bob@shop.com", "secret1")
	require.NoError(t, err)

	_, err = newTestProvider().Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
